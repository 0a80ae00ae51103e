package secret

import (
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/projects"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/secretmanager"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/serviceaccount"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

// Manager creates secrets the API service account can read.
type Manager struct {
	prov    *gcp.Provider
	service *projects.Service
	reader  pulumi.StringOutput
}

// SetupSecretManager enables the API and remembers the account that will be
// granted read access to each secret.
func SetupSecretManager(ctx *pulumi.Context, prov *gcp.Provider, apiSA *serviceaccount.Account) (*Manager, error) {
	svc, err := projects.NewService(ctx, "secretManagerService", &projects.ServiceArgs{
		Service: pulumi.String("secretmanager.googleapis.com"),
	},
		pulumi.Provider(prov),
	)
	if err != nil {
		return nil, err
	}

	return &Manager{
		prov:    prov,
		service: svc,
		reader:  pulumi.Sprintf("serviceAccount:%s", apiSA.Email),
	}, nil
}

// Service is the enabled API, for callers that must wait on it.
func (m *Manager) Service() *projects.Service { return m.service }

// AddSecret stores value as the first version of secretID and returns the
// secret ID once it exists.
func (m *Manager) AddSecret(ctx *pulumi.Context, resourceName, secretID string, value pulumi.StringInput) (pulumi.StringOutput, error) {
	empty := pulumi.String("").ToStringOutput()
	projectID := config.New(ctx, "gcp").Require("project")

	s, err := secretmanager.NewSecret(ctx, resourceName, &secretmanager.SecretArgs{
		SecretId: pulumi.String(secretID),
		Replication: &secretmanager.SecretReplicationArgs{
			Auto: &secretmanager.SecretReplicationAutoArgs{},
		},
	},
		pulumi.Provider(m.prov),
		pulumi.DependsOn([]pulumi.Resource{m.service}),
	)
	if err != nil {
		return empty, err
	}

	_, err = secretmanager.NewSecretVersion(ctx, resourceName+"Version", &secretmanager.SecretVersionArgs{
		Secret:     s.ID(),
		SecretData: value,
	},
		pulumi.Provider(m.prov),
	)
	if err != nil {
		return empty, err
	}

	_, err = secretmanager.NewSecretIamMember(ctx, resourceName+"Reader", &secretmanager.SecretIamMemberArgs{
		Project:  pulumi.String(projectID),
		SecretId: s.SecretId,
		Role:     pulumi.String("roles/secretmanager.secretAccessor"),
		Member:   m.reader,
	},
		pulumi.Provider(m.prov),
	)
	if err != nil {
		return empty, err
	}

	return s.SecretId, nil
}
