package aws

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"

	"github.com/imamik/onpremctl/internal/cloudinit"
	"github.com/imamik/onpremctl/internal/config"
	"github.com/imamik/onpremctl/internal/provisioning"
	"github.com/imamik/onpremctl/internal/task"
	"github.com/imamik/onpremctl/internal/util/naming"
	"github.com/imamik/onpremctl/internal/util/retry"
)

// EC2API is the part of the EC2 API the launcher uses.
type EC2API interface {
	RunInstances(ctx context.Context, params *ec2.RunInstancesInput, optFns ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error)
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	TerminateInstances(ctx context.Context, params *ec2.TerminateInstancesInput, optFns ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error)
	ImportKeyPair(ctx context.Context, params *ec2.ImportKeyPairInput, optFns ...func(*ec2.Options)) (*ec2.ImportKeyPairOutput, error)
	DeleteKeyPair(ctx context.Context, params *ec2.DeleteKeyPairInput, optFns ...func(*ec2.Options)) (*ec2.DeleteKeyPairOutput, error)
}

// liveStates are the instance states that count as an existing node.
var liveStates = []string{
	string(types.InstanceStateNamePending),
	string(types.InstanceStateNameRunning),
	string(types.InstanceStateNameStopping),
	string(types.InstanceStateNameStopped),
}

// Launcher implements provisioning.Launcher on EC2.
type Launcher struct {
	api            EC2API
	timeouts       *config.Timeouts
	settings       config.AWSConfig
	adminPublicKey string
	sources        cloudinit.SourceReader
}

// LauncherOption configures a Launcher.
type LauncherOption func(*Launcher)

// WithTimeouts sets custom timeouts for the launcher.
func WithTimeouts(t *config.Timeouts) LauncherOption {
	return func(l *Launcher) {
		l.timeouts = t
	}
}

// WithEC2API sets a custom EC2 client (useful for testing).
func WithEC2API(api EC2API) LauncherOption {
	return func(l *Launcher) {
		l.api = api
	}
}

// WithSources sets the reader used for file mount sources.
func WithSources(sources cloudinit.SourceReader) LauncherOption {
	return func(l *Launcher) {
		l.sources = sources
	}
}

// NewLauncher creates a launcher for settings. Credentials come from the
// default AWS chain, honouring settings.Profile. adminPublicKey is imported
// as the instance key pair unless settings.KeyName is set.
func NewLauncher(ctx context.Context, settings config.AWSConfig, adminPublicKey string, opts ...LauncherOption) (*Launcher, error) {
	l := &Launcher{
		timeouts:       config.LoadTimeouts(),
		settings:       settings,
		adminPublicKey: adminPublicKey,
		sources:        cloudinit.Sources{},
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.api == nil {
		loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(settings.Region)}
		if settings.Profile != "" {
			loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(settings.Profile))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		l.api = ec2.NewFromConfig(awsCfg)
	}
	return l, nil
}

// Launch implements provisioning.Launcher.
func (l *Launcher) Launch(ctx context.Context, name, taskFile string) error {
	d, err := task.Load(taskFile)
	if err != nil {
		return err
	}
	if d.Resources.Cloud != config.PlatformAWS {
		return fmt.Errorf("task targets %q, not %s", d.Resources.Cloud, config.PlatformAWS)
	}
	if l.settings.ImageID == "" {
		return fmt.Errorf("aws.image_id is required")
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeouts.ServerCreate)
	defer cancel()

	existing, err := l.findInstance(ctx, name)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("instance %s already exists (%s)", name, aws.ToString(existing.InstanceId))
	}

	userData, err := cloudinit.Render(ctx, d, l.sources)
	if err != nil {
		return err
	}

	keyName, err := l.ensureKeyPair(ctx, name)
	if err != nil {
		return err
	}

	input := &ec2.RunInstancesInput{
		ImageId:      aws.String(l.settings.ImageID),
		InstanceType: types.InstanceType(l.settings.InstanceType),
		MinCount:     aws.Int32(1),
		MaxCount:     aws.Int32(1),
		KeyName:      aws.String(keyName),
		UserData:     aws.String(base64.StdEncoding.EncodeToString([]byte(userData))),
		TagSpecifications: []types.TagSpecification{{
			ResourceType: types.ResourceTypeInstance,
			Tags:         Tags(name),
		}},
	}
	if l.settings.SubnetID != "" {
		input.SubnetId = aws.String(l.settings.SubnetID)
	}

	var out *ec2.RunInstancesOutput
	err = retry.WithExponentialBackoff(ctx, func() error {
		var runErr error
		out, runErr = l.api.RunInstances(ctx, input)
		if runErr != nil && !isRetryable(runErr) {
			return retry.Fatal(runErr)
		}
		return runErr
	}, retry.WithMaxRetries(l.timeouts.RetryMaxAttempts), retry.WithInitialDelay(l.timeouts.RetryInitialDelay))
	if err != nil {
		return fmt.Errorf("failed to run instance: %w", err)
	}
	if len(out.Instances) == 0 {
		return fmt.Errorf("failed to run instance: no instance returned")
	}

	waiter := ec2.NewInstanceRunningWaiter(l.api)
	if err := waiter.Wait(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{aws.ToString(out.Instances[0].InstanceId)},
	}, l.timeouts.ServerCreate); err != nil {
		return fmt.Errorf("failed to wait for instance %s: %w", name, err)
	}
	return nil
}

// LookupHandle implements provisioning.Launcher. The public IP is preferred;
// instances in private subnets report their private IP.
func (l *Launcher) LookupHandle(ctx context.Context, name string) (*provisioning.ClusterHandle, error) {
	instance, err := l.findInstance(ctx, name)
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, nil
	}

	address := aws.ToString(instance.PublicIpAddress)
	if address == "" {
		address = aws.ToString(instance.PrivateIpAddress)
	}
	return &provisioning.ClusterHandle{
		Name:        name,
		ID:          aws.ToString(instance.InstanceId),
		Platform:    config.PlatformAWS,
		HeadAddress: address,
	}, nil
}

// Terminate implements provisioning.Launcher. It waits for the instance to
// terminate, then deletes the key pair imported for it.
func (l *Launcher) Terminate(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeouts.Delete)
	defer cancel()

	instance, err := l.findInstance(ctx, name)
	if err != nil {
		return err
	}
	if instance != nil {
		id := aws.ToString(instance.InstanceId)
		_, err := l.api.TerminateInstances(ctx, &ec2.TerminateInstancesInput{InstanceIds: []string{id}})
		if err != nil && !hasErrorCode(err, "InvalidInstanceID.NotFound") {
			return fmt.Errorf("failed to terminate instance %s: %w", id, err)
		}
		waiter := ec2.NewInstanceTerminatedWaiter(l.api)
		if err := waiter.Wait(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{id}}, l.timeouts.Delete); err != nil {
			return fmt.Errorf("failed to wait for instance %s to terminate: %w", id, err)
		}
	}

	if l.settings.KeyName != "" {
		return nil
	}
	_, err = l.api.DeleteKeyPair(ctx, &ec2.DeleteKeyPairInput{KeyName: aws.String(naming.SSHKey(name))})
	if err != nil && !hasErrorCode(err, "InvalidKeyPair.NotFound") {
		return fmt.Errorf("failed to delete key pair: %w", err)
	}
	return nil
}

// findInstance returns the live instance tagged with name, if any.
func (l *Launcher) findInstance(ctx context.Context, name string) (*types.Instance, error) {
	out, err := l.api.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		Filters: []types.Filter{
			{Name: aws.String("tag:" + naming.NodeLabel), Values: []string{name}},
			{Name: aws.String("instance-state-name"), Values: liveStates},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe instances: %w", err)
	}
	for _, reservation := range out.Reservations {
		if len(reservation.Instances) > 0 {
			return &reservation.Instances[0], nil
		}
	}
	return nil, nil
}

// ensureKeyPair returns the key pair name instances are launched with.
func (l *Launcher) ensureKeyPair(ctx context.Context, name string) (string, error) {
	if l.settings.KeyName != "" {
		return l.settings.KeyName, nil
	}

	keyName := naming.SSHKey(name)
	_, err := l.api.ImportKeyPair(ctx, &ec2.ImportKeyPairInput{
		KeyName:           aws.String(keyName),
		PublicKeyMaterial: []byte(l.adminPublicKey),
		TagSpecifications: []types.TagSpecification{{
			ResourceType: types.ResourceTypeKeyPair,
			Tags:         Tags(name),
		}},
	})
	if err != nil && !hasErrorCode(err, "InvalidKeyPair.Duplicate") {
		return "", fmt.Errorf("failed to import key pair: %w", err)
	}
	return keyName, nil
}

// Tags returns the EC2 tags identifying node name.
func Tags(name string) []types.Tag {
	tags := []types.Tag{{Key: aws.String("Name"), Value: aws.String(name)}}
	labels := naming.Labels(name)
	for _, key := range []string{naming.NodeLabel, naming.ManagedByLabel} {
		tags = append(tags, types.Tag{Key: aws.String(key), Value: aws.String(labels[key])})
	}
	return tags
}

func hasErrorCode(err error, codes ...string) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, code := range codes {
		if apiErr.ErrorCode() == code {
			return true
		}
	}
	return false
}

// isRetryable reports whether a RunInstances error is worth retrying.
func isRetryable(err error) bool {
	return hasErrorCode(err, "InsufficientInstanceCapacity", "RequestLimitExceeded", "Unavailable", "InternalError")
}
