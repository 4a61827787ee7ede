package repositories

import (
	"context"
	"sort"
	"time"

	"rescuereach/models"
	"rescuereach/utils"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(database *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: database.Collection("users"),
	}
}

func (ur *UserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := ur.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewNotFoundError("User")
	}
	if err != nil {
		logrus.Errorf("Failed to get user %s: %v", userID, err)
		return nil, utils.WrapDatabaseError(err, "get user")
	}
	return &user, nil
}

func (ur *UserRepository) GetByPhoneNumber(ctx context.Context, phoneNumber string) (*models.User, error) {
	var user models.User
	err := ur.collection.FindOne(ctx, bson.M{"phoneNumber": phoneNumber}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewNotFoundError("User")
	}
	if err != nil {
		return nil, utils.WrapDatabaseError(err, "get user by phone")
	}
	return &user, nil
}

func (ur *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	opts := options.Replace().SetUpsert(true)
	if _, err := ur.collection.ReplaceOne(ctx, bson.M{"_id": user.ID}, user, opts); err != nil {
		logrus.Errorf("Failed to upsert user %s: %v", user.ID, err)
		return utils.WrapDatabaseError(err, "upsert user")
	}
	return nil
}

func (ur *UserRepository) UpdateProfile(ctx context.Context, userID string, fields bson.M) error {
	fields["updatedAt"] = time.Now()
	result, err := ur.collection.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": fields})
	if err != nil {
		return utils.WrapDatabaseError(err, "update profile")
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFoundError("User")
	}
	return nil
}

func (ur *UserRepository) UpdateEmergencyContacts(ctx context.Context, userID string, contacts []models.EmergencyContact) error {
	return ur.UpdateProfile(ctx, userID, bson.M{"emergencyContacts": contacts})
}

// CurrentUser returns the reporter profile snapshot used when a report is
// assembled.
func (ur *UserRepository) CurrentUser(ctx context.Context, userID string) (*models.UserSnapshot, error) {
	user, err := ur.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	snapshot := user.Snapshot()
	return &snapshot, nil
}

// EmergencyContacts returns the stored contacts as values, primary first.
func (ur *UserRepository) EmergencyContacts(ctx context.Context, userID string) ([]models.EmergencyContact, error) {
	user, err := ur.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	contacts := make([]models.EmergencyContact, len(user.EmergencyContacts))
	copy(contacts, user.EmergencyContacts)
	sort.SliceStable(contacts, func(i, j int) bool {
		return contacts[i].IsPrimary && !contacts[j].IsPrimary
	})
	return contacts, nil
}
