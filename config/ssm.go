package config

import (
	"context"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// ParameterLister is the slice of the SSM client the overlay needs.
type ParameterLister interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// LoadSSM overlays every parameter stored under SSM_PARAMETER_PATH onto c.
// Values already present in the environment win. Failures are logged and leave c untouched.
func LoadSSM(ctx context.Context, c map[string]string) {
	prefix := GetString(c, "SSM_PARAMETER_PATH", "")
	if prefix == "" {
		return
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(GetString(c, "AWS_REGION", "us-east-1")))
	if err != nil {
		log.Warn().Err(err).Msg("Skipping SSM overlay: unable to load AWS config")
		return
	}

	loaded, err := Overlay(ctx, ssm.NewFromConfig(awsCfg), prefix, c)
	if err != nil {
		log.Warn().Err(err).Str("path", prefix).Msg("SSM overlay failed")
		return
	}
	log.Info().Int("parameters", loaded).Str("path", prefix).Msg("Loaded configuration from SSM")
}

// Overlay pages through the parameters under prefix and copies the ones not set in c.
// The key is the last path segment of the parameter name.
func Overlay(ctx context.Context, client ParameterLister, prefix string, c map[string]string) (int, error) {
	loaded := 0
	input := &ssm.GetParametersByPathInput{
		Path:           aws.String(prefix),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	}

	for {
		out, err := client.GetParametersByPath(ctx, input)
		if err != nil {
			return loaded, err
		}

		for _, p := range out.Parameters {
			key := strings.ToUpper(path.Base(aws.ToString(p.Name)))
			if key == "" || key == "." || key == "/" {
				continue
			}
			if existing, ok := c[key]; ok && existing != "" {
				continue
			}
			c[key] = aws.ToString(p.Value)
			loaded++
		}

		if out.NextToken == nil || *out.NextToken == "" {
			return loaded, nil
		}
		input.NextToken = out.NextToken
	}
}
