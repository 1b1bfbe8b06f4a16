package sns

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/vanvan1998/todoApp/internal/config"
)

// Alerter delivers reminder alerts. RequestPermission is the delivery
// gate: it reports whether alerts can currently be published. It is
// idempotent — once granted, subsequent calls are answered from cache.
type Alerter interface {
	RequestPermission(ctx context.Context) (bool, error)
	Deliver(ctx context.Context, message string) error
}

type alerter struct {
	client   *sns.Client
	topicARN string

	mu      sync.Mutex
	granted bool
}

// NewAlerter creates an SNS-backed Alerter publishing to cfg.SNSTopicARN.
// With no topic configured, permission is permanently denied and Deliver is
// never reached.
func NewAlerter(cfg *config.Config) (Alerter, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &alerter{client: sns.NewFromConfig(awsCfg), topicARN: cfg.SNSTopicARN}, nil
}

func (a *alerter) RequestPermission(ctx context.Context) (bool, error) {
	if a.topicARN == "" {
		return false, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.granted {
		return true, nil
	}

	_, err := a.client.GetTopicAttributes(ctx, &sns.GetTopicAttributesInput{
		TopicArn: aws.String(a.topicARN),
	})
	if err != nil {
		// Unreachable or unauthorized topic counts as denied; the caller
		// retries on a later tick.
		return false, nil
	}
	a.granted = true
	return true, nil
}

// NopAlerter returns an Alerter that always denies permission. Used when SNS
// is not configured so reminder scans keep running without delivering.
func NopAlerter() Alerter {
	return nopAlerter{}
}

type nopAlerter struct{}

func (nopAlerter) RequestPermission(context.Context) (bool, error) { return false, nil }
func (nopAlerter) Deliver(context.Context, string) error           { return nil }

func (a *alerter) Deliver(ctx context.Context, message string) error {
	_, err := a.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(a.topicARN),
		Message:  aws.String(message),
	})
	return err
}
