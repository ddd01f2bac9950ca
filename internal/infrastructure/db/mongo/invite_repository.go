package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fieldops/contractor-api/internal/core/domain"
)

const collectionInvites = "invites"

// InviteRepository implements ports.InviteRepository on the invites
// collection.
type InviteRepository struct {
	col *mongo.Collection
}

func NewInviteRepository(db *mongo.Database) *InviteRepository {
	return &InviteRepository{col: db.Collection(collectionInvites)}
}

type inviteDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Email      string             `bson:"email"`
	TenantID   string             `bson:"tenant_id"`
	Role       string             `bson:"role"`
	Status     string             `bson:"status"`
	CreatedAt  time.Time          `bson:"created_at"`
	ExpiresAt  time.Time          `bson:"expires_at"`
	AcceptedAt *time.Time         `bson:"accepted_at,omitempty"`
}

// Create inserts a new pending invitation. Duplicate pendings for the same
// (tenant, email) pair are allowed; consumption tie-breaks on created_at.
func (r *InviteRepository) Create(ctx context.Context, inv *domain.Invitation) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := inviteDoc{
		Email:     strings.ToLower(inv.Email),
		TenantID:  inv.TenantID,
		Role:      inv.Role,
		Status:    string(domain.InvitePending),
		CreatedAt: inv.CreatedAt.UTC(),
		ExpiresAt: inv.ExpiresAt.UTC(),
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return "", err
	}
	oid, _ := res.InsertedID.(primitive.ObjectID)
	return oid.Hex(), nil
}

// FindPending returns the earliest pending invitation for email whose
// expiry is strictly after now. Expired invites are filtered here, never
// deleted.
func (r *InviteRepository) FindPending(ctx context.Context, email string, now time.Time) (*domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"email":      strings.ToLower(email),
		"status":     string(domain.InvitePending),
		"expires_at": bson.M{"$gt": now.UTC()},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})

	var doc inviteDoc
	err := r.col.FindOne(ctx, filter, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrInviteNotFound
		}
		return nil, err
	}
	return toInvitation(doc), nil
}

// Consume flips a pending invitation to accepted. The filter carries the
// pending status so the update is conditional: a concurrent consumer or a
// replay matches nothing and gets domain.ErrInviteConsumed.
func (r *InviteRepository) Consume(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrInviteNotFound
	}

	filter := bson.M{"_id": oid, "status": string(domain.InvitePending)}
	update := bson.M{"$set": bson.M{
		"status":      string(domain.InviteAccepted),
		"accepted_at": time.Now().UTC(),
	}}

	err = r.col.FindOneAndUpdate(ctx, filter, update).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ErrInviteConsumed
		}
		return err
	}
	return nil
}

// EnsureIndexes creates the consumption-path index on the invites collection.
func (r *InviteRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "email", Value: 1},
			{Key: "status", Value: 1},
			{Key: "expires_at", Value: 1},
		}},
		{Keys: bson.D{{Key: "tenant_id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func toInvitation(doc inviteDoc) *domain.Invitation {
	return &domain.Invitation{
		ID:        doc.ID.Hex(),
		Email:     doc.Email,
		TenantID:  doc.TenantID,
		Role:      doc.Role,
		Status:    domain.InviteStatus(doc.Status),
		CreatedAt: doc.CreatedAt,
		ExpiresAt: doc.ExpiresAt,
	}
}
