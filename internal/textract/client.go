package textract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awstextract "github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"go.uber.org/zap"
)

// DefaultRegion is used when no region is configured
const DefaultRegion = "us-east-1"

// AnalyzeDocumentAPI is the subset of the Textract client used here
type AnalyzeDocumentAPI interface {
	AnalyzeDocument(ctx context.Context, params *awstextract.AnalyzeDocumentInput,
		optFns ...func(*awstextract.Options)) (*awstextract.AnalyzeDocumentOutput, error)
}

// Options configures a Client
type Options struct {
	Region   string
	Endpoint string
	Logger   *zap.Logger
}

// Client runs form analysis against AWS Textract
type Client struct {
	api         AnalyzeDocumentAPI
	credentials aws.CredentialsProvider
	region      string
	logger      *zap.Logger
}

// NewClient loads the default AWS configuration for the given region and
// creates a Textract client. Credentials are resolved lazily on first use.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	region := opts.Region
	if region == "" {
		region = DefaultRegion
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	api := awstextract.NewFromConfig(cfg, func(o *awstextract.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})

	return NewClientWithAPI(api, cfg.Credentials, region, opts.Logger), nil
}

// NewClientWithAPI wraps an existing API implementation
func NewClientWithAPI(api AnalyzeDocumentAPI, credentials aws.CredentialsProvider, region string,
	logger *zap.Logger,
) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		api:         api,
		credentials: credentials,
		region:      region,
		logger:      logger,
	}
}

// Region returns the region the client talks to
func (c *Client) Region() string {
	return c.region
}

// AnalyzeDocument sends the document for key-value (FORMS) analysis and returns
// the response blocks in order. Every error is an *AnalysisError.
func (c *Client) AnalyzeDocument(ctx context.Context, document []byte) ([]Block, error) {
	if err := c.checkCredentials(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := c.api.AnalyzeDocument(ctx, &awstextract.AnalyzeDocumentInput{
		Document:     &types.Document{Bytes: document},
		FeatureTypes: []types.FeatureType{types.FeatureTypeForms},
	})
	if err != nil {
		ae := Classify(err)
		c.logger.Warn("textract analyze document failed",
			zap.String("kind", ae.Kind.String()),
			zap.String("code", ae.Code),
			zap.String("request_id", ae.RequestID),
			zap.Error(err),
		)
		return nil, ae
	}
	if out == nil {
		return nil, NewAnalysisError(ErrorKindUnexpected, "textract returned no output", nil)
	}

	blocks, err := FromSDKBlocks(out.Blocks)
	if err != nil {
		return nil, NewAnalysisError(ErrorKindUnexpected, "unhandled response shape", err)
	}

	c.logger.Debug("textract analyze document complete",
		zap.String("region", c.region),
		zap.Int("blocks", len(blocks)),
		zap.Duration("duration", time.Since(start)),
	)
	return blocks, nil
}

// checkCredentials resolves credentials before the call so that missing or
// partial credentials are reported as such rather than as a signing failure.
func (c *Client) checkCredentials(ctx context.Context) error {
	if c.credentials == nil {
		return NewAnalysisError(ErrorKindCredentials, "no AWS credentials provider configured", nil)
	}

	creds, err := c.credentials.Retrieve(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return NewAnalysisError(ErrorKindTransport, err.Error(), err)
		}
		return NewAnalysisError(ErrorKindCredentials, "AWS credentials not found", err)
	}
	if !creds.HasKeys() {
		return NewAnalysisError(ErrorKindCredentials, "AWS credentials are incomplete", nil)
	}
	return nil
}
