package kms

import (
	"fmt"

	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/kms"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/projects"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

const rotationPeriod = "7776000s" // 90 days

func SetupKMS(ctx *pulumi.Context, prov *gcp.Provider) (*projects.Service, error) {
	return projects.NewService(ctx, "kmsService", &projects.ServiceArgs{
		Service: pulumi.String("cloudkms.googleapis.com"),
	}, pulumi.Provider(prov))
}

// CreateKey creates a key ring and a symmetric key inside it, returning the
// key's resource name for KMSKEYNAME.
func CreateKey(ctx *pulumi.Context, prov *gcp.Provider, svc *projects.Service, ringID, keyID string) (pulumi.StringOutput, error) {
	location := config.New(ctx, "gcp").Require("region")
	empty := pulumi.String("").ToStringOutput()

	ring, err := kms.NewKeyRing(ctx, fmt.Sprintf("%s-ring", ringID), &kms.KeyRingArgs{
		Location: pulumi.String(location),
		Name:     pulumi.String(ringID),
	},
		pulumi.Provider(prov),
		pulumi.DependsOn([]pulumi.Resource{svc}),
	)
	if err != nil {
		return empty, err
	}

	key, err := kms.NewCryptoKey(ctx, fmt.Sprintf("%s-key", keyID), &kms.CryptoKeyArgs{
		KeyRing:        ring.ID(),
		Name:           pulumi.String(keyID),
		Purpose:        pulumi.String("ENCRYPT_DECRYPT"),
		RotationPeriod: pulumi.String(rotationPeriod),
	},
		pulumi.Provider(prov),
		pulumi.Protect(true),
	)
	if err != nil {
		return empty, err
	}

	return key.ID().ToStringOutput(), nil
}
