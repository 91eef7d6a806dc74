package textract

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awstextract "github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAPI struct {
	out   *awstextract.AnalyzeDocumentOutput
	err   error
	calls int
	input *awstextract.AnalyzeDocumentInput
}

func (s *stubAPI) AnalyzeDocument(_ context.Context, params *awstextract.AnalyzeDocumentInput,
	_ ...func(*awstextract.Options),
) (*awstextract.AnalyzeDocumentOutput, error) {
	s.calls++
	s.input = params
	return s.out, s.err
}

func staticCredentials() aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{AccessKeyID: "AKID", SecretAccessKey: "SECRET"}, nil
	})
}

func TestClient_AnalyzeDocument(t *testing.T) {
	api := &stubAPI{out: &awstextract.AnalyzeDocumentOutput{
		Blocks: []types.Block{
			{Id: aws.String("p"), BlockType: types.BlockTypePage},
			{Id: aws.String("w"), BlockType: types.BlockTypeWord, Text: aws.String("June")},
		},
	}}
	client := NewClientWithAPI(api, staticCredentials(), "eu-west-1", nil)

	blocks, err := client.AnalyzeDocument(context.Background(), []byte("%PDF-1.7"))
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "June", blocks[1].Text)
	assert.Equal(t, "eu-west-1", client.Region())

	require.NotNil(t, api.input)
	assert.Equal(t, []types.FeatureType{types.FeatureTypeForms}, api.input.FeatureTypes)
	assert.Equal(t, []byte("%PDF-1.7"), api.input.Document.Bytes)
}

func TestClient_AnalyzeDocument_Credentials(t *testing.T) {
	tests := []struct {
		name  string
		creds aws.CredentialsProvider
	}{
		{name: "no_provider", creds: nil},
		{
			name: "retrieve_fails",
			creds: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
				return aws.Credentials{}, errors.New("no credentials in chain")
			}),
		},
		{
			name: "partial_keys",
			creds: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
				return aws.Credentials{AccessKeyID: "AKID"}, nil
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &stubAPI{}
			client := NewClientWithAPI(api, tt.creds, DefaultRegion, nil)

			blocks, err := client.AnalyzeDocument(context.Background(), []byte("doc"))
			assert.Nil(t, blocks)
			assert.True(t, IsKind(err, ErrorKindCredentials), "got %v", err)
			assert.Equal(t, 0, api.calls, "the service must not be called without credentials")
		})
	}
}

func TestClient_AnalyzeDocument_Errors(t *testing.T) {
	t.Run("client_error", func(t *testing.T) {
		api := &stubAPI{err: apiOperationError("InvalidParameterException", "bad input", "rid-1")}
		client := NewClientWithAPI(api, staticCredentials(), DefaultRegion, nil)

		_, err := client.AnalyzeDocument(context.Background(), []byte("doc"))
		var ae *AnalysisError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, ErrorKindClient, ae.Kind)
		assert.Equal(t, "InvalidParameterException", ae.Code)
		assert.Equal(t, "rid-1", ae.RequestID)
	})

	t.Run("malformed_block", func(t *testing.T) {
		api := &stubAPI{out: &awstextract.AnalyzeDocumentOutput{
			Blocks: []types.Block{{BlockType: types.BlockTypeWord}},
		}}
		client := NewClientWithAPI(api, staticCredentials(), DefaultRegion, nil)

		_, err := client.AnalyzeDocument(context.Background(), []byte("doc"))
		assert.True(t, IsKind(err, ErrorKindUnexpected))
	})

	t.Run("nil_output", func(t *testing.T) {
		client := NewClientWithAPI(&stubAPI{}, staticCredentials(), DefaultRegion, nil)

		_, err := client.AnalyzeDocument(context.Background(), []byte("doc"))
		assert.True(t, IsKind(err, ErrorKindUnexpected))
	})
}
