package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sc "github.com/taskvault/taskvault/internal/server/config"
	"github.com/taskvault/taskvault/internal/server/models"
	"github.com/taskvault/taskvault/internal/server/repositories/repomanager"
)

// presignValidity bounds how long a presigned upload/download URL works.
const presignValidity = 15 * time.Minute

// Seams for testing the AWS SDK calls without a live endpoint.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// AttachmentService links task attachments to rows and vends presigned S3
// URLs for the actual bytes; the server never proxies file content.
type AttachmentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

// NewAttachmentService constructs an AttachmentService.
func NewAttachmentService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config) *AttachmentService {
	return &AttachmentService{db: db, repomanager: m, config: cfg}
}

// GetRandomStorageKey builds a collision-free object key, grouped by date so
// buckets stay browsable.
func GetRandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("tasks/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *AttachmentService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,     // MINIO_ROOT_USER
			s.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

func (s *AttachmentService) getPresignedPutURL(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignValidity))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

func (s *AttachmentService) getPresignedGetURL(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignValidity))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// Add registers an attachment for one of userID's tasks and returns the
// stored row plus a presigned PUT URL for the upload. A foreign or missing
// task surfaces as common.ErrorNotFound from the repository.
func (s *AttachmentService) Add(ctx context.Context, userID, taskID int64, fileName string) (*models.Attachment, string, error) {
	att := &models.Attachment{
		TaskID:     taskID,
		FileName:   fileName,
		StorageKey: GetRandomStorageKey(),
	}

	repo := s.repomanager.Attachments(s.db)

	att, err := repo.Create(ctx, att, userID)
	if err != nil {
		return nil, "", err
	}

	url, err := s.getPresignedPutURL(ctx, att.StorageKey)
	if err != nil {
		return nil, "", fmt.Errorf("error presigning upload: %w", err)
	}

	return att, url, nil
}

// DownloadURL returns a presigned GET URL for an owned task's attachment.
func (s *AttachmentService) DownloadURL(ctx context.Context, userID, taskID, attachmentID int64) (*models.Attachment, string, error) {
	repo := s.repomanager.Attachments(s.db)

	att, err := repo.GetByIDAndOwner(ctx, attachmentID, taskID, userID)
	if err != nil {
		return nil, "", err
	}

	url, err := s.getPresignedGetURL(ctx, att.StorageKey)
	if err != nil {
		return nil, "", fmt.Errorf("error presigning download: %w", err)
	}

	return att, url, nil
}

// List returns the attachments of one of userID's tasks.
func (s *AttachmentService) List(ctx context.Context, userID, taskID int64) ([]*models.Attachment, error) {
	return s.repomanager.Attachments(s.db).ListByTaskAndOwner(ctx, taskID, userID)
}
