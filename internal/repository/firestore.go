package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/habitmate/habitmate/internal/model"
)

const (
	habitsCollection      = "habits"
	completionsCollection = "completions"
)

// NewFirestoreClient connects to Firestore. FIRESTORE_EMULATOR_HOST is honoured by the client library.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return client, nil
}

type firestoreHabitRepository struct {
	client *firestore.Client
}

// NewFirestoreHabitRepository stores habits as documents in the "habits" collection,
// keyed by habit id and scoped by the ownerId field.
func NewFirestoreHabitRepository(client *firestore.Client) HabitRepository {
	return &firestoreHabitRepository{client: client}
}

func (r *firestoreHabitRepository) habits() *firestore.CollectionRef {
	return r.client.Collection(habitsCollection)
}

func (r *firestoreHabitRepository) Create(ctx context.Context, habit *model.Habit) error {
	habit.OwnerEmail = strings.ToLower(habit.OwnerEmail)

	_, err := r.habits().Doc(habit.ID).Create(ctx, habit)
	if err != nil {
		return fmt.Errorf("failed to create habit: %w", err)
	}
	return nil
}

func (r *firestoreHabitRepository) ByID(ctx context.Context, ownerID, habitID string) (*model.Habit, error) {
	doc, err := r.habits().Doc(habitID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrHabitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}

	habit, err := decodeHabit(doc)
	if err != nil {
		return nil, err
	}

	if habit.OwnerID != ownerID {
		return nil, ErrHabitNotFound
	}
	return habit, nil
}

func (r *firestoreHabitRepository) Habits(ctx context.Context, ownerID string) ([]*model.Habit, error) {
	iter := r.habits().
		Where("ownerId", "==", ownerID).
		Documents(ctx)
	defer iter.Stop()

	habits := []*model.Habit{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate habits: %w", err)
		}

		habit, err := decodeHabit(doc)
		if err != nil {
			return nil, err
		}
		habits = append(habits, habit)
	}

	sortHabits(habits)
	return habits, nil
}

func (r *firestoreHabitRepository) Update(ctx context.Context, habit *model.Habit) error {
	ref := r.habits().Doc(habit.ID)

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// Verify ownership inside the transaction
		_, err := r.ownedDoc(tx, ref, habit.OwnerID)
		if err != nil {
			return err
		}

		return tx.Update(ref, []firestore.Update{
			{Path: "name", Value: habit.Name},
			{Path: "description", Value: habit.Description},
			{Path: "category", Value: habit.Category},
			{Path: "frequency", Value: habit.Frequency},
			{Path: "icon", Value: habit.Icon},
			{Path: "color", Value: habit.Color},
			{Path: "completed", Value: habit.Completed},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
}

func (r *firestoreHabitRepository) Delete(ctx context.Context, ownerID, habitID string) error {
	ref := r.habits().Doc(habitID)

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		_, err := r.ownedDoc(tx, ref, ownerID)
		if err != nil {
			return err
		}
		return tx.Delete(ref)
	})
}

func (r *firestoreHabitRepository) DeleteAll(ctx context.Context, ownerID string) error {
	iter := r.habits().
		Where("ownerId", "==", ownerID).
		Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to iterate habits for deletion: %w", err)
		}

		_, err = doc.Ref.Delete(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete habit: %w", err)
		}
	}

	return nil
}

func (r *firestoreHabitRepository) ClaimLegacy(ctx context.Context, ownerID, ownerEmail string) (int, error) {
	iter := r.habits().
		Where("ownerEmail", "==", strings.ToLower(strings.TrimSpace(ownerEmail))).
		Documents(ctx)
	defer iter.Stop()

	var claimed int
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return claimed, fmt.Errorf("failed to iterate legacy habits: %w", err)
		}

		owner, _ := doc.Data()["ownerId"].(string)
		if owner != "" {
			continue
		}

		_, err = doc.Ref.Update(ctx, []firestore.Update{
			{Path: "ownerId", Value: ownerID},
		})
		if err != nil {
			return claimed, fmt.Errorf("failed to claim habit: %w", err)
		}
		claimed++
	}

	return claimed, nil
}

func (r *firestoreHabitRepository) Watch(ctx context.Context, ownerID string, onData func([]*model.Habit)) error {
	snapshots := r.habits().
		Where("ownerId", "==", ownerID).
		Snapshots(ctx)
	defer snapshots.Stop()

	for {
		snap, err := snapshots.Next()
		if err == iterator.Done || ctx.Err() != nil || status.Code(err) == codes.Canceled {
			return nil
		}
		if err != nil {
			return fmt.Errorf("habit listener failed: %w", err)
		}

		docs, err := snap.Documents.GetAll()
		if err != nil {
			return fmt.Errorf("failed to read habit snapshot: %w", err)
		}

		habits := make([]*model.Habit, 0, len(docs))
		for _, doc := range docs {
			habit, err := decodeHabit(doc)
			if err != nil {
				return err
			}
			habits = append(habits, habit)
		}

		sortHabits(habits)
		onData(habits)
	}
}

// ownedDoc reads ref in tx and returns ErrHabitNotFound when it is missing or owned by someone else.
func (r *firestoreHabitRepository) ownedDoc(tx *firestore.Transaction, ref *firestore.DocumentRef, ownerID string) (*model.Habit, error) {
	doc, err := tx.Get(ref)
	if status.Code(err) == codes.NotFound {
		return nil, ErrHabitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}

	habit, err := decodeHabit(doc)
	if err != nil {
		return nil, err
	}
	if habit.OwnerID != ownerID {
		return nil, ErrHabitNotFound
	}
	return habit, nil
}

func decodeHabit(doc *firestore.DocumentSnapshot) (*model.Habit, error) {
	var habit model.Habit
	if err := doc.DataTo(&habit); err != nil {
		return nil, fmt.Errorf("failed to unmarshal habit %s: %w", doc.Ref.ID, err)
	}
	if habit.ID == "" {
		habit.ID = doc.Ref.ID
	}
	return &habit, nil
}

// sortHabits orders newest first, matching the SQL store.
func sortHabits(habits []*model.Habit) {
	sort.SliceStable(habits, func(i, j int) bool {
		if habits[i].CreatedAt.Equal(habits[j].CreatedAt) {
			return habits[i].ID < habits[j].ID
		}
		return habits[i].CreatedAt.After(habits[j].CreatedAt)
	})
}

type firestoreCompletionRepository struct {
	client *firestore.Client
}

// NewFirestoreCompletionRepository stores the completion log in the "completions"
// collection with one document per (habit, day), id "<habitId>_<day>".
func NewFirestoreCompletionRepository(client *firestore.Client) CompletionRepository {
	return &firestoreCompletionRepository{client: client}
}

func (r *firestoreCompletionRepository) doc(habitID, day string) *firestore.DocumentRef {
	return r.client.Collection(completionsCollection).Doc(habitID + "_" + day)
}

func (r *firestoreCompletionRepository) Add(ctx context.Context, completion *model.Completion) error {
	_, err := r.doc(completion.HabitID, completion.Day).Create(ctx, completion)
	if status.Code(err) == codes.AlreadyExists {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to add completion: %w", err)
	}
	return nil
}

func (r *firestoreCompletionRepository) Remove(ctx context.Context, ownerID, habitID, day string) error {
	ref := r.doc(habitID, day)

	doc, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get completion: %w", err)
	}

	owner, _ := doc.Data()["ownerId"].(string)
	if owner != ownerID {
		return nil
	}

	_, err = ref.Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove completion: %w", err)
	}
	return nil
}

func (r *firestoreCompletionRepository) Completions(ctx context.Context, ownerID, since string) ([]*model.Completion, error) {
	// Filtered by day in memory: an equality + range query would need a composite index
	iter := r.client.Collection(completionsCollection).
		Where("ownerId", "==", ownerID).
		Documents(ctx)
	defer iter.Stop()

	completions := []*model.Completion{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate completions: %w", err)
		}

		var completion model.Completion
		if err := doc.DataTo(&completion); err != nil {
			return nil, fmt.Errorf("failed to unmarshal completion %s: %w", doc.Ref.ID, err)
		}
		if completion.Day < since {
			continue
		}
		completions = append(completions, &completion)
	}

	sort.SliceStable(completions, func(i, j int) bool {
		if completions[i].Day == completions[j].Day {
			return completions[i].HabitID < completions[j].HabitID
		}
		return completions[i].Day < completions[j].Day
	})
	return completions, nil
}

func (r *firestoreCompletionRepository) DeleteForHabit(ctx context.Context, ownerID, habitID string) error {
	iter := r.client.Collection(completionsCollection).
		Where("habitId", "==", habitID).
		Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to iterate completions for deletion: %w", err)
		}

		owner, _ := doc.Data()["ownerId"].(string)
		if owner != ownerID {
			continue
		}

		_, err = doc.Ref.Delete(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete completion: %w", err)
		}
	}

	return nil
}
