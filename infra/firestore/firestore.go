package firestore

import (
	"fmt"

	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/firestore"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/projects"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

// transactionIndexes back the list/report queries: equality filters on the
// leading fields plus a date range ordered newest first.
var transactionIndexes = map[string][]string{
	"txTypeDate":         {"type"},
	"txCategoryDate":     {"categoryId"},
	"txTypeCategoryDate": {"type", "categoryId"},
}

// ttlFields are pruned by Firestore once the timestamp passes.
var ttlFields = map[string]string{
	"aiMessagesTtl":     "messages",
	"passwordResetsTtl": "password_resets",
}

func SetupFirestore(ctx *pulumi.Context, prov *gcp.Provider) error {
	svc, err := enableFireStore(ctx, prov)
	if err != nil {
		return err
	}

	db, err := createDatabase(ctx, prov, svc)
	if err != nil {
		return err
	}

	if err := createIndexes(ctx, prov, db); err != nil {
		return err
	}

	return createTTLPolicies(ctx, prov, db)
}

func enableFireStore(ctx *pulumi.Context, prov *gcp.Provider) (*projects.Service, error) {
	return projects.NewService(ctx, "firestore", &projects.ServiceArgs{
		Service: pulumi.String("firestore.googleapis.com"),
	},
		pulumi.Provider(prov),
	)
}

func createDatabase(ctx *pulumi.Context, prov *gcp.Provider, res ...pulumi.Resource) (*firestore.Database, error) {
	gcpCfg := config.New(ctx, "gcp")
	projectID := gcpCfg.Require("project")
	region := gcpCfg.Require("region")

	return firestore.NewDatabase(ctx, "firestoreDatabase", &firestore.DatabaseArgs{
		Name:       pulumi.String("(default)"),
		Project:    pulumi.String(projectID),
		LocationId: pulumi.String(region),
		Type:       pulumi.String("FIRESTORE_NATIVE"),
	},
		pulumi.Provider(prov),
		pulumi.DependsOn(res),
	)
}

func createIndexes(ctx *pulumi.Context, prov *gcp.Provider, db *firestore.Database) error {
	for name, leading := range transactionIndexes {
		fields := firestore.IndexFieldArray{}
		for _, f := range leading {
			fields = append(fields, &firestore.IndexFieldArgs{
				FieldPath: pulumi.String(f),
				Order:     pulumi.String("ASCENDING"),
			})
		}
		fields = append(fields, &firestore.IndexFieldArgs{
			FieldPath: pulumi.String("date"),
			Order:     pulumi.String("DESCENDING"),
		})

		_, err := firestore.NewIndex(ctx, name, &firestore.IndexArgs{
			Database:   db.Name,
			Collection: pulumi.String("transactions"),
			QueryScope: pulumi.String("COLLECTION"),
			Fields:     fields,
		},
			pulumi.Provider(prov),
			pulumi.DependsOn([]pulumi.Resource{db}),
		)
		if err != nil {
			return fmt.Errorf("index %s: %w", name, err)
		}
	}
	return nil
}

func createTTLPolicies(ctx *pulumi.Context, prov *gcp.Provider, db *firestore.Database) error {
	for name, collection := range ttlFields {
		_, err := firestore.NewField(ctx, name, &firestore.FieldArgs{
			Database:   db.Name,
			Collection: pulumi.String(collection),
			Field:      pulumi.String("expiresAt"),
			TtlConfig:  &firestore.FieldTtlConfigArgs{},
		},
			pulumi.Provider(prov),
			pulumi.DependsOn([]pulumi.Resource{db}),
		)
		if err != nil {
			return fmt.Errorf("ttl %s: %w", name, err)
		}
	}
	return nil
}
