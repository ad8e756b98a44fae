// Package firestore stores notices in Cloud Firestore using the path layout
// users/{uid}, organizations/{org}, organizations/{org}/users/{uid},
// organizations/{org}/images/{id} and organizations/{org}/{monthIndex}/{id}.
package firestore

import (
	"context"
	"fmt"
	"strconv"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PracticalMetal/major-notice/internal/config"
	"github.com/PracticalMetal/major-notice/internal/repository"
)

const (
	colUsers         = "users"
	colOrganizations = "organizations"
	colImages        = "images"
	colEmails        = "emails"
)

// NewClient creates a Firestore client for the configured project.
// FIRESTORE_EMULATOR_HOST is honored by the client library itself.
func NewClient(ctx context.Context, c config.GCPConfig) (*firestore.Client, error) {
	if c.ProjectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}
	var opts []option.ClientOption
	if c.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(c.CredentialsFile))
	}
	client, err := firestore.NewClient(ctx, c.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return client, nil
}

func orgRef(c *firestore.Client, org string) *firestore.DocumentRef {
	return c.Collection(colOrganizations).Doc(org)
}

func imageRef(c *firestore.Client, org, id string) *firestore.DocumentRef {
	return orgRef(c, org).Collection(colImages).Doc(id)
}

func bucketCollection(c *firestore.Client, org string, month int) *firestore.CollectionRef {
	return orgRef(c, org).Collection(strconv.Itoa(month))
}

func bucketRef(c *firestore.Client, org string, month int, id string) *firestore.DocumentRef {
	return bucketCollection(c, org, month).Doc(id)
}

func memberRef(c *firestore.Client, org, uid string) *firestore.DocumentRef {
	return orgRef(c, org).Collection(colUsers).Doc(uid)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// mapErr translates gRPC status codes to repository errors.
func mapErr(err error) error {
	switch status.Code(err) {
	case codes.OK:
		return err
	case codes.NotFound:
		return repository.ErrNotFound
	case codes.AlreadyExists:
		return repository.ErrConflict
	default:
		return err
	}
}
