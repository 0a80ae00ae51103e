package cloudrun

import (
	"fmt"
	"strconv"

	"github.com/pulumi/pulumi-docker/sdk/v4/go/docker"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/cloudrun"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/kms"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/projects"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/serviceaccount"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"

	"github.com/GregMSThompson/expense-backend/infra/common"
	registry "github.com/GregMSThompson/expense-backend/infra/docker"
	"github.com/GregMSThompson/expense-backend/infra/secret"
)

// settings is the stack configuration the API service is deployed with.
type settings struct {
	projectID    string
	region       string
	minScale     string
	maxScale     string
	cpu          string
	memory       string
	concurrency  string
	logLevel     string
	timeout      int
	plaidEnv     string
	authProvider string
	timezone     string
	vertexModel  string
	smtpHost     string
	smtpPort     string
	smtpUsername string
	senderEmail  string
}

func loadSettings(ctx *pulumi.Context) (settings, error) {
	gcpCfg := config.New(ctx, "gcp")
	crCfg := config.New(ctx, "cloudrun")

	timeout, err := strconv.Atoi(crCfg.Require("timeout"))
	if err != nil {
		return settings{}, fmt.Errorf("cloudrun:timeout: %w", err)
	}

	return settings{
		projectID:    gcpCfg.Require("project"),
		region:       gcpCfg.Require("region"),
		minScale:     crCfg.Require("minScale"),
		maxScale:     crCfg.Require("maxScale"),
		cpu:          crCfg.Require("cpu"),
		memory:       crCfg.Require("memory"),
		concurrency:  crCfg.Require("concurrency"),
		logLevel:     crCfg.Require("logLevel"),
		timeout:      timeout,
		plaidEnv:     config.New(ctx, "plaid").Require("environment"),
		authProvider: common.AppSetting(ctx, "authProvider", "local"),
		timezone:     common.AppSetting(ctx, "timezone", "UTC"),
		vertexModel:  common.AppSetting(ctx, "vertexModel", ""),
		smtpHost:     common.AppSetting(ctx, "smtpHost", ""),
		smtpPort:     common.AppSetting(ctx, "smtpPort", "587"),
		smtpUsername: common.AppSetting(ctx, "smtpUsername", ""),
		senderEmail:  common.AppSetting(ctx, "senderEmail", ""),
	}, nil
}

type secretRefs struct {
	plaidClientIDName pulumi.StringOutput
	plaidSecretName   pulumi.StringOutput
	jwtSecretName     pulumi.StringOutput
	smtpPasswordName  pulumi.StringOutput // empty unless mail is configured
}

// SetupCloudRun deploys the API. keyID is the KMS key that seals Plaid
// access tokens.
func SetupCloudRun(ctx *pulumi.Context, prov *gcp.Provider, keyID pulumi.StringOutput, res ...pulumi.Resource) (*serviceaccount.Account, error) {
	cfg, err := loadSettings(ctx)
	if err != nil {
		return nil, err
	}

	img, err := buildApiImage(ctx, cfg, res...)
	if err != nil {
		return nil, err
	}

	srv, err := enableCloudRun(ctx, prov)
	if err != nil {
		return nil, err
	}

	apiSA, err := createServiceAccount(ctx, cfg, prov)
	if err != nil {
		return nil, err
	}

	sm, err := secret.SetupSecretManager(ctx, prov, apiSA)
	if err != nil {
		return nil, err
	}

	sr, err := createSecrets(ctx, cfg, sm)
	if err != nil {
		return nil, err
	}

	if err := grantKeyAccess(ctx, prov, apiSA, keyID); err != nil {
		return nil, err
	}

	svc, err := createCloudRunService(ctx, cfg, img, apiSA, sr, keyID, prov, srv, sm.Service())
	if err != nil {
		return nil, err
	}

	if err := allowPublicInvoke(ctx, cfg, svc, prov); err != nil {
		return nil, err
	}

	return apiSA, nil
}

func buildApiImage(ctx *pulumi.Context, cfg settings, res ...pulumi.Resource) (*docker.Image, error) {
	hash, err := common.GenerateHash("..", ".git", "_examples", "infra")
	if err != nil {
		return nil, err
	}

	return docker.NewImage(ctx, "apiImage", &docker.ImageArgs{
		Build: docker.DockerBuildArgs{
			Platform:   pulumi.String("linux/amd64"),
			Context:    pulumi.String(".."),                    // build from repo root
			Dockerfile: pulumi.String("../cmd/api/Dockerfile"), // Dockerfile path relative to repo root
		},
		ImageName: pulumi.String(fmt.Sprintf("%s-docker.pkg.dev/%s/%s/expense-api:%s", cfg.region, cfg.projectID, registry.RepositoryID, hash)),
	},
		pulumi.DependsOn(res),
	)
}

func enableCloudRun(ctx *pulumi.Context, prov *gcp.Provider) (*projects.Service, error) {
	return projects.NewService(ctx, "cloudRunService", &projects.ServiceArgs{
		Service: pulumi.String("run.googleapis.com"),
	},
		pulumi.Provider(prov),
	)
}

func createServiceAccount(ctx *pulumi.Context, cfg settings, prov *gcp.Provider) (*serviceaccount.Account, error) {
	apiSA, err := serviceaccount.NewAccount(ctx, "apiServiceAccount", &serviceaccount.AccountArgs{
		AccountId:   pulumi.String("api-service"),
		DisplayName: pulumi.String("API Service Account"),
	},
		pulumi.Provider(prov),
	)
	if err != nil {
		return nil, err
	}

	roles := map[string]string{
		"firestoreAccess": "roles/datastore.user",      // Firestore read/write
		"vertexAccess":    "roles/aiplatform.user",     // assistant queries
		"firebaseAccess":  "roles/firebaseauth.viewer", // ID token verification
	}
	for name, role := range roles {
		_, err = projects.NewIAMMember(ctx, name, &projects.IAMMemberArgs{
			Role:    pulumi.String(role),
			Member:  serviceAccountMember(apiSA),
			Project: pulumi.String(cfg.projectID),
		},
			pulumi.Provider(prov),
		)
		if err != nil {
			return nil, err
		}
	}

	return apiSA, nil
}

func serviceAccountMember(sa *serviceaccount.Account) pulumi.StringOutput {
	return sa.Email.ApplyT(func(email string) string {
		return fmt.Sprintf("serviceAccount:%s", email)
	}).(pulumi.StringOutput)
}

func grantKeyAccess(ctx *pulumi.Context, prov *gcp.Provider, apiSA *serviceaccount.Account, keyID pulumi.StringOutput) error {
	_, err := kms.NewCryptoKeyIAMMember(ctx, "plaidTokenKeyAccess", &kms.CryptoKeyIAMMemberArgs{
		CryptoKeyId: keyID,
		Role:        pulumi.String("roles/cloudkms.cryptoKeyEncrypterDecrypter"),
		Member:      serviceAccountMember(apiSA),
	},
		pulumi.Provider(prov),
	)
	return err
}

func createCloudRunService(ctx *pulumi.Context,
	cfg settings,
	img *docker.Image,
	apiSA *serviceaccount.Account,
	sr *secretRefs,
	keyID pulumi.StringOutput,
	prov *gcp.Provider,
	res ...pulumi.Resource) (*cloudrun.Service, error) {
	annotations := pulumi.StringMap{
		"autoscaling.knative.dev/minScale":         pulumi.String(cfg.minScale),
		"autoscaling.knative.dev/maxScale":         pulumi.String(cfg.maxScale),
		"run.googleapis.com/cpu":                   pulumi.String(cfg.cpu),
		"run.googleapis.com/memory":                pulumi.String(cfg.memory),
		"run.googleapis.com/cpu-throttling":        pulumi.String("true"),
		"run.googleapis.com/container-concurrency": pulumi.String(cfg.concurrency),
	}
	if cfg.authProvider == "firebase" {
		annotations["run.googleapis.com/launch-stage"] = pulumi.String("BETA")
		annotations["run.googleapis.com/identity-provider"] = pulumi.String("firebase")
	}

	envs := cloudrun.ServiceTemplateSpecContainerEnvArray{
		plainEnv("PROJECTID", pulumi.String(cfg.projectID)),
		plainEnv("REGION", pulumi.String(cfg.region)),
		plainEnv("LOGLEVEL", pulumi.String(cfg.logLevel)),
		plainEnv("TIMEZONE", pulumi.String(cfg.timezone)),
		plainEnv("AUTHPROVIDER", pulumi.String(cfg.authProvider)),
		plainEnv("JWTSECRETNAME", sr.jwtSecretName),
		plainEnv("KMSKEYNAME", keyID),
		plainEnv("PLAIDENVIRONMENT", pulumi.String(cfg.plaidEnv)),
		secretEnv("PLAIDCLIENTID", sr.plaidClientIDName),
		secretEnv("PLAIDSECRET", sr.plaidSecretName),
	}
	if cfg.vertexModel != "" {
		envs = append(envs, plainEnv("VERTEXMODEL", pulumi.String(cfg.vertexModel)))
	}
	// local auth refuses to start without a way to deliver password resets
	if cfg.smtpHost != "" {
		envs = append(envs,
			plainEnv("SMTPHOST", pulumi.String(cfg.smtpHost)),
			plainEnv("SMTPPORT", pulumi.String(cfg.smtpPort)),
			plainEnv("SMTPUSERNAME", pulumi.String(cfg.smtpUsername)),
			plainEnv("SENDEREMAIL", pulumi.String(cfg.senderEmail)),
			secretEnv("SMTPPASSWORD", sr.smtpPasswordName),
		)
	}

	return cloudrun.NewService(ctx, "apiService", &cloudrun.ServiceArgs{
		Location: pulumi.String(cfg.region),
		Template: &cloudrun.ServiceTemplateArgs{

			Metadata: &cloudrun.ServiceTemplateMetadataArgs{
				Annotations: annotations,
			},

			Spec: &cloudrun.ServiceTemplateSpecArgs{
				ServiceAccountName: apiSA.Email,
				TimeoutSeconds:     pulumi.Int(cfg.timeout),

				Containers: cloudrun.ServiceTemplateSpecContainerArray{
					&cloudrun.ServiceTemplateSpecContainerArgs{
						Image: img.ImageName,
						Ports: cloudrun.ServiceTemplateSpecContainerPortArray{
							&cloudrun.ServiceTemplateSpecContainerPortArgs{
								ContainerPort: pulumi.Int(8080),
							},
						},
						Envs: envs,
					},
				},
			},
		},
	},
		pulumi.Provider(prov),
		pulumi.DependsOn(res),
	)
}

func plainEnv(name string, value pulumi.StringInput) *cloudrun.ServiceTemplateSpecContainerEnvArgs {
	return &cloudrun.ServiceTemplateSpecContainerEnvArgs{
		Name:  pulumi.String(name),
		Value: value,
	}
}

func secretEnv(name string, secretName pulumi.StringOutput) *cloudrun.ServiceTemplateSpecContainerEnvArgs {
	return &cloudrun.ServiceTemplateSpecContainerEnvArgs{
		Name: pulumi.String(name),
		ValueFrom: &cloudrun.ServiceTemplateSpecContainerEnvValueFromArgs{
			SecretKeyRef: &cloudrun.ServiceTemplateSpecContainerEnvValueFromSecretKeyRefArgs{
				Name: secretName,
				Key:  pulumi.String("latest"),
			},
		},
	}
}

// allowPublicInvoke opens the service to unauthenticated callers. The API
// checks bearer tokens itself.
func allowPublicInvoke(ctx *pulumi.Context, cfg settings, svc *cloudrun.Service, prov *gcp.Provider) error {
	_, err := cloudrun.NewIamMember(ctx, "publicInvoker", &cloudrun.IamMemberArgs{
		Service:  svc.Name,
		Location: pulumi.String(cfg.region),
		Role:     pulumi.String("roles/run.invoker"),
		Member:   pulumi.String("allUsers"),
	},
		pulumi.Provider(prov),
	)
	return err
}

func createSecrets(ctx *pulumi.Context, cfg settings, sm *secret.Manager) (*secretRefs, error) {
	var err error
	sr := new(secretRefs)

	plaidCfg := config.New(ctx, "plaid")
	plaidClientID := plaidCfg.RequireSecret("clientId")
	plaidSecret := plaidCfg.RequireSecret("secret")

	sr.plaidClientIDName, err = sm.AddSecret(ctx, "plaidClientIdSecret", "plaidClientId", plaidClientID)
	if err != nil {
		return nil, err
	}

	sr.plaidSecretName, err = sm.AddSecret(ctx, "plaidSecretSecret", "plaidSecret", plaidSecret)
	if err != nil {
		return nil, err
	}

	jwtSecret := config.New(ctx, "app").RequireSecret("jwtSecret")
	sr.jwtSecretName, err = sm.AddSecret(ctx, "jwtSigningSecret", "jwtSigningKey", jwtSecret)
	if err != nil {
		return nil, err
	}

	if cfg.smtpHost != "" {
		smtpPassword := config.New(ctx, "app").RequireSecret("smtpPassword")
		sr.smtpPasswordName, err = sm.AddSecret(ctx, "smtpPasswordSecret", "smtpPassword", smtpPassword)
		if err != nil {
			return nil, err
		}
	}

	return sr, nil
}
