package crypto

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"

	"github.com/GregMSThompson/expense-backend/internal/errs"
)

type secretAccessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// SecretVersionName expands a short secret id into a full version resource.
// Names that already start with "projects/" are used as given, with
// "/versions/latest" appended when no version is present.
func SecretVersionName(projectID, name string) string {
	if !strings.HasPrefix(name, "projects/") {
		name = fmt.Sprintf("projects/%s/secrets/%s", projectID, name)
	}
	if !strings.Contains(name, "/versions/") {
		name += "/versions/latest"
	}
	return name
}

// ReadSecret fetches a secret payload from Secret Manager.
func ReadSecret(ctx context.Context, client secretAccessor, projectID, name string) (string, error) {
	res, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: SecretVersionName(projectID, name),
	})
	if err != nil {
		return "", errs.NewExternalServiceError("secretmanager", "failed to access secret", false, err)
	}
	return string(res.GetPayload().GetData()), nil
}
