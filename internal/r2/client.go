package r2

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// Client holds the configuration for interacting with Cloudflare R2, where
// generated artifacts (Excel exports, aggregated summaries) are stored.
type Client struct {
	s3Client   *s3.Client
	bucketName string
	publicURL  string // base public URL for the bucket (e.g. https://pub-xxxxxxxx.r2.dev)
}

// NewClient creates and configures a new R2 client instance from environment
// variables. It returns (nil, nil) when the R2 variables are not fully
// configured, so the application can run with artifact uploads disabled.
func NewClient() (*Client, error) {
	accountID := os.Getenv("CLOUDFLARE_ACCOUNT_ID")
	bucketName := os.Getenv("R2_BUCKET_NAME")
	accessKeyID := os.Getenv("R2_ACCESS_KEY_ID")
	secretAccessKey := os.Getenv("R2_SECRET_ACCESS_KEY")
	publicURL := os.Getenv("R2_PUBLIC_URL")

	if accountID == "" || bucketName == "" || accessKeyID == "" || secretAccessKey == "" || publicURL == "" {
		log.Println("WARN: Cloudflare R2 environment variables not fully configured (CLOUDFLARE_ACCOUNT_ID, R2_BUCKET_NAME, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_PUBLIC_URL). Artifact uploads will be skipped.")
		return nil, nil
	}

	r2Resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID),
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithEndpointResolverWithOptions(r2Resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config for R2: %w", err)
	}

	log.Printf("INFO: R2 client initialized for bucket '%s'", bucketName)
	return &Client{
		s3Client:   s3.NewFromConfig(cfg),
		bucketName: bucketName,
		publicURL:  publicURL,
	}, nil
}

// UploadArtifact uploads a generated artifact under
// "quiz/<quizID>/<filename>" and returns its public URL.
func (c *Client) UploadArtifact(ctx context.Context, quizID uuid.UUID, filename string, content io.Reader) (string, error) {
	if c == nil || c.s3Client == nil {
		return "", fmt.Errorf("R2 client not initialized, skipping upload")
	}

	objectKey := fmt.Sprintf("quiz/%s/%s", quizID.String(), filename)

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucketName),
		Key:         aws.String(objectKey),
		Body:        content,
		ACL:         types.ObjectCannedACLPublicRead,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload artifact to R2 (key: %s): %w", objectKey, err)
	}

	baseURL, err := url.Parse(c.publicURL)
	if err != nil {
		log.Printf("ERROR: failed to parse R2 public base URL '%s': %v", c.publicURL, err)
		return "", fmt.Errorf("invalid R2 public base URL configured")
	}
	baseURL.Path = path.Join(baseURL.Path, objectKey)

	publicFileURL := baseURL.String()
	log.Printf("INFO: successfully uploaded artifact to R2: %s", publicFileURL)
	return publicFileURL, nil
}
