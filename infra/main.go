package main

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/GregMSThompson/expense-backend/infra/cloudrun"
	"github.com/GregMSThompson/expense-backend/infra/common"
	"github.com/GregMSThompson/expense-backend/infra/docker"
	"github.com/GregMSThompson/expense-backend/infra/firestore"
	"github.com/GregMSThompson/expense-backend/infra/identity"
	"github.com/GregMSThompson/expense-backend/infra/kms"
	"github.com/GregMSThompson/expense-backend/infra/provider"
	"github.com/GregMSThompson/expense-backend/infra/vertex"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		// set default provider with the correct project
		prov, err := provider.SetupDefaultProvider(ctx)
		if err != nil {
			return err
		}

		var deps []pulumi.Resource

		// Identity Platform is only needed when Firebase issues the tokens
		if common.AppSetting(ctx, "authProvider", "local") == "firebase" {
			ident, err := identity.SetupIdentity(ctx, prov)
			if err != nil {
				return err
			}
			deps = append(deps, ident)
		}

		// enable firestore, create the database, indexes and TTL policies
		err = firestore.SetupFirestore(ctx, prov)
		if err != nil {
			return err
		}

		// key that seals Plaid access tokens at rest
		kmsSvc, err := kms.SetupKMS(ctx, prov)
		if err != nil {
			return err
		}
		keyID, err := kms.CreateKey(ctx, prov, kmsSvc, "expense", "plaid-token")
		if err != nil {
			return err
		}
		deps = append(deps, kmsSvc)

		if common.AppSetting(ctx, "vertexModel", "") != "" {
			vertexSvc, err := vertex.SetupVertex(ctx, prov)
			if err != nil {
				return err
			}
			deps = append(deps, vertexSvc)
		}

		// create docker repo
		repo, err := docker.CreateCloudrunRepo(ctx, prov)
		if err != nil {
			return err
		}
		deps = append(deps, repo)

		apiSA, err := cloudrun.SetupCloudRun(ctx, prov, keyID, deps...)
		if err != nil {
			return err
		}

		ctx.Export("apiServiceAccount", apiSA.Email)
		ctx.Export("plaidTokenKey", keyID)
		return nil
	})
}
