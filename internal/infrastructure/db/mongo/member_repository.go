package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fieldops/contractor-api/internal/core/domain"
)

const (
	collectionMembers  = "members"
	collectionProfiles = "users"
)

// MemberRepository implements ports.MemberRepository. Members are scoped by
// tenant_id inside a single collection; owner profiles are top-level user
// documents with no tenant yet.
type MemberRepository struct {
	db *mongo.Database
}

func NewMemberRepository(db *mongo.Database) *MemberRepository {
	return &MemberRepository{db: db}
}

// UpsertMember writes the membership document keyed by (tenant_id, user_id).
// Upsert keeps at-least-once delivery of the post-signup event harmless.
func (r *MemberRepository) UpsertMember(ctx context.Context, m *domain.Member) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"tenant_id": m.TenantID, "user_id": m.UserID}
	update := bson.M{"$set": bson.M{
		"email":      m.Email,
		"role":       m.Role,
		"status":     m.Status,
		"invited_at": m.InvitedAt.UTC(),
	}}

	_, err := r.db.Collection(collectionMembers).
		UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// CreateOwnerProfile writes the unscoped profile document for a bootstrap
// owner, keyed by user_id so a redelivered event overwrites rather than
// duplicates.
func (r *MemberRepository) CreateOwnerProfile(ctx context.Context, p *domain.OwnerProfile) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"user_id": p.UserID}
	update := bson.M{"$set": bson.M{
		"email":      p.Email,
		"role":       p.Role,
		"status":     p.Status,
		"created_at": p.CreatedAt.UTC(),
	}}

	_, err := r.db.Collection(collectionProfiles).
		UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// EnsureIndexes creates the membership lookup index.
func (r *MemberRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.db.Collection(collectionMembers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
