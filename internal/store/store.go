package store

import (
	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/expense-backend/internal/errs"
)

// Per-user data lives under users/{uid}; callers always pass the uid.
func userDoc(client *firestore.Client, uid string) *firestore.DocumentRef {
	return client.Collection("users").Doc(uid)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// dbError maps a Firestore failure on the named entity onto the errs types.
func dbError(operation, entity string, err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return errs.NewNotFoundError(entity + " not found")
	case codes.AlreadyExists:
		return errs.NewAlreadyExistsError(entity + " already exists")
	default:
		return errs.NewDatabaseError(operation, "failed to "+operation+" "+entity, err)
	}
}

// bulkResults waits for every queued job after the writer has been ended.
func bulkResults(jobs []*firestore.BulkWriterJob) error {
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return err
		}
	}
	return nil
}
