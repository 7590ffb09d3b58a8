// Package cloudverify checks that stored cloud account credentials are still
// valid. For AWS this is a single STS GetCallerIdentity call: it requires no
// permissions beyond the credentials themselves and returns the account ID,
// which is compared against the stored account identifier to catch accounts
// wired to the wrong credentials.
package cloudverify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/grcplatform/grc-backend/internal/config"
	"github.com/grcplatform/grc-backend/internal/crypto"
)

// Result is the outcome of a credential verification
type Result struct {
	OK       bool   `json:"ok"`
	Identity string `json:"identity,omitempty"` // caller ARN on success
	Account  string `json:"account,omitempty"`  // provider account ID on success
	Error    string `json:"error,omitempty"`
}

// awsCredentials is the shape of the sealed credential blob for AWS accounts
type awsCredentials struct {
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	SessionToken    string `json:"session_token,omitempty"`
}

// Verifier performs credential checks against cloud providers
type Verifier struct {
	cipher  *crypto.TokenCipher
	cfg     config.CloudConfig
	stsFunc func(ctx context.Context, region string, creds awsCredentials) (*sts.GetCallerIdentityOutput, error)
}

// NewVerifier creates a Verifier. cipher opens the sealed credential blobs
// stored on cloud account rows.
func NewVerifier(cipher *crypto.TokenCipher, cfg config.CloudConfig) *Verifier {
	return &Verifier{
		cipher:  cipher,
		cfg:     cfg,
		stsFunc: callerIdentity,
	}
}

// callerIdentity performs the real STS round-trip
func callerIdentity(ctx context.Context, region string, creds awsCredentials) (*sts.GetCallerIdentityOutput, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build aws config: %w", err)
	}

	client := sts.NewFromConfig(awsCfg)
	return client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
}

// VerifyAWS checks a sealed AWS credential blob. A failed provider call is a
// Result with OK=false, not an error; errors are reserved for local problems
// (bad ciphertext, malformed blob).
func (v *Verifier) VerifyAWS(ctx context.Context, ciphertext string, region *string) (*Result, error) {
	plaintext, err := v.cipher.Open(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to open stored credentials: %w", err)
	}
	if plaintext == "" {
		return nil, fmt.Errorf("no credentials stored for account")
	}

	var creds awsCredentials
	if err := json.Unmarshal([]byte(plaintext), &creds); err != nil {
		return nil, fmt.Errorf("stored credentials are malformed: %w", err)
	}

	r := v.cfg.DefaultRegion
	if region != nil && *region != "" {
		r = *region
	}

	timeout := v.cfg.VerifyTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := v.stsFunc(ctx, r, creds)
	if err != nil {
		return &Result{OK: false, Error: err.Error()}, nil
	}

	res := &Result{OK: true}
	if out.Arn != nil {
		res.Identity = *out.Arn
	}
	if out.Account != nil {
		res.Account = *out.Account
	}
	return res, nil
}
