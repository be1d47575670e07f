package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/nijaru/yt-quiz/config"
	"github.com/nijaru/yt-quiz/models"
	"github.com/pkg/errors"
)

// ObjectAPI is the subset of the S3 client the archive uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Archive stores transcripts and exported quizzes in an S3-compatible bucket
// (AWS, DigitalOcean Spaces, MinIO).
type Archive struct {
	client ObjectAPI
	bucket string
}

func NewArchive(ctx context.Context, cfg config.StorageConfig) (*Archive, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load SDK config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewArchiveWithClient(client, cfg.Bucket), nil
}

func NewArchiveWithClient(client ObjectAPI, bucket string) *Archive {
	return &Archive{client: client, bucket: bucket}
}

func TranscriptKey(videoID, lang string) string {
	return fmt.Sprintf("transcripts/%s/%s.json", videoID, lang)
}

func QuizKey(quizID string, revision int) string {
	return fmt.Sprintf("quizzes/%s/rev-%d.md", quizID, revision)
}

type transcriptRecord struct {
	VideoID   string    `json:"video_id"`
	Language  string    `json:"language"`
	Source    string    `json:"source"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

func (a *Archive) SaveTranscript(ctx context.Context, t *models.Transcript) (string, error) {
	data, err := json.Marshal(transcriptRecord{
		VideoID:   t.VideoID,
		Language:  t.Language,
		Source:    t.Source,
		Text:      t.Text,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal transcript")
	}

	key := TranscriptKey(t.VideoID, t.Language)
	if err := a.put(ctx, key, "application/json", data); err != nil {
		return "", err
	}
	return key, nil
}

func (a *Archive) GetTranscript(ctx context.Context, videoID, lang string) (*models.Transcript, error) {
	body, err := a.get(ctx, TranscriptKey(videoID, lang))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var rec transcriptRecord
	if err := json.NewDecoder(body).Decode(&rec); err != nil {
		return nil, errors.Wrap(err, "failed to decode transcript")
	}

	return &models.Transcript{
		VideoID:   rec.VideoID,
		Language:  rec.Language,
		Source:    rec.Source,
		Text:      rec.Text,
		CreatedAt: rec.Timestamp,
		UpdatedAt: rec.Timestamp,
	}, nil
}

// SaveQuiz uploads a rendered quiz document and returns its object key.
func (a *Archive) SaveQuiz(ctx context.Context, quizID string, revision int, document []byte) (string, error) {
	key := QuizKey(quizID, revision)
	if err := a.put(ctx, key, "text/markdown; charset=utf-8", document); err != nil {
		return "", err
	}
	return key, nil
}

func (a *Archive) put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return errors.Wrapf(err, "failed to upload %s", key)
	}
	return nil
}

func (a *Archive) get(ctx context.Context, key string) (io.ReadCloser, error) {
	result, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", key)
	}
	return result.Body, nil
}
