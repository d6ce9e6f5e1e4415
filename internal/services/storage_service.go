// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/licensechain/internal/config"
	"github.com/javajoker/licensechain/internal/metrics"
	"github.com/javajoker/licensechain/internal/models"
	"github.com/javajoker/licensechain/internal/utils"
)

// DocumentStore uploads a document and returns an absolute, publicly
// fetchable URL for it.
type DocumentStore interface {
	Upload(ctx context.Context, name, contentType string, data []byte) (string, error)
	Backend() string
}

// StorageService validates documents and hands them to the configured store.
type StorageService struct {
	store        DocumentStore
	maxSize      int64
	allowedTypes []string
	log          *logrus.Entry
}

type UploadResult struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
	SHA256   string `json:"sha256"`
}

var (
	ErrDocumentTooLarge      = errors.New("document exceeds maximum size")
	ErrDocumentTypeForbidden = errors.New("document type is not allowed")
)

// NewStorageService picks the backend named by cfg.Storage.Backend.
func NewStorageService(cfg *config.Config, logger *logrus.Logger) (*StorageService, error) {
	var store DocumentStore
	switch cfg.Storage.Backend {
	case "pinata":
		store = NewPinataStore(cfg.Storage.PinataAPIURL, cfg.Storage.PinataGatewayURL, cfg.Storage.PinataJWT, nil)
	case "s3":
		s3Store, err := NewS3Store(cfg.AWS)
		if err != nil {
			return nil, err
		}
		store = s3Store
	case "local":
		store = NewLocalStore(cfg.Storage.LocalDir, cfg.Storage.LocalBaseURL)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	return NewStorageServiceWithStore(store, cfg.Storage.MaxUploadSize, cfg.Storage.AllowedTypes, logger), nil
}

func NewStorageServiceWithStore(store DocumentStore, maxSize int64, allowedTypes []string, logger *logrus.Logger) *StorageService {
	return &StorageService{
		store:        store,
		maxSize:      maxSize,
		allowedTypes: allowedTypes,
		log:          logger.WithField("component", "storage"),
	}
}

func (s *StorageService) Backend() string {
	return s.store.Backend()
}

func (s *StorageService) Store() DocumentStore {
	return s.store
}

// Validate checks size and extension before anything is read.
func (s *StorageService) Validate(file *models.DocumentFile) error {
	if file == nil || file.Reader == nil {
		return fmt.Errorf("%w: no document", models.ErrInvalidDraft)
	}
	if s.maxSize > 0 && file.Size > s.maxSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrDocumentTooLarge, file.Size, s.maxSize)
	}

	if len(s.allowedTypes) > 0 {
		fileExt := strings.ToLower(filepath.Ext(file.Name))
		allowed := false
		for _, allowedType := range s.allowedTypes {
			if fileExt == allowedType {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w: %s", ErrDocumentTypeForbidden, fileExt)
		}
	}
	return nil
}

// UploadDocument validates and uploads file. Any store error, or a store that
// returns no URL, is an UploadFailure.
func (s *StorageService) UploadDocument(ctx context.Context, file *models.DocumentFile) (*UploadResult, error) {
	if err := s.Validate(file); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(file.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read document: %v", models.ErrUploadFailure, err)
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrDocumentTooLarge, len(data), s.maxSize)
	}

	contentType := file.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	url, err := s.store.Upload(ctx, file.Name, contentType, data)
	if err == nil && strings.TrimSpace(url) == "" {
		err = errors.New("store returned no content reference")
	}
	metrics.RecordUpload(s.store.Backend(), int64(len(data)), err)

	entry := s.log.WithFields(logrus.Fields{
		"backend": s.store.Backend(),
		"name":    file.Name,
		"size":    len(data),
	})
	if err != nil {
		entry.WithError(err).Warn("document upload failed")
		if errors.Is(err, models.ErrUploadFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", models.ErrUploadFailure, err)
	}
	entry.WithField("url", url).Info("document uploaded")

	return &UploadResult{
		URL:      url,
		Name:     file.Name,
		Size:     int64(len(data)),
		MimeType: contentType,
		SHA256:   utils.HashBytes(data),
	}, nil
}

// Upload satisfies DocumentUploader for the submission flow.
func (s *StorageService) Upload(ctx context.Context, file *models.DocumentFile) (string, error) {
	result, err := s.UploadDocument(ctx, file)
	if err != nil {
		return "", err
	}
	return result.URL, nil
}

// PinataStore pins files to IPFS through Pinata's pinFileToIPFS endpoint.
type PinataStore struct {
	apiURL     string
	gatewayURL string
	jwt        string
	client     *http.Client
	now        func() time.Time
}

type pinataResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

func NewPinataStore(apiURL, gatewayURL, jwt string, client *http.Client) *PinataStore {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &PinataStore{
		apiURL:     strings.TrimRight(apiURL, "/"),
		gatewayURL: strings.TrimRight(gatewayURL, "/"),
		jwt:        jwt,
		client:     client,
		now:        time.Now,
	}
}

func (p *PinataStore) Backend() string {
	return "pinata"
}

func (p *PinataStore) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if p.jwt == "" {
		return "", fmt.Errorf("%w: pinata credential not configured", models.ErrUploadFailure)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(name)))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}

	metadata, _ := json.Marshal(map[string]string{
		"name": fmt.Sprintf("License_Doc_%d", p.now().UnixMilli()),
	})
	if err := writer.WriteField("pinataMetadata", string(metadata)); err != nil {
		return "", err
	}
	if err := writer.WriteField("pinataOptions", `{"cidVersion":0}`); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+"/pinning/pinFileToIPFS", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+p.jwt)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("pinata request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("pinata returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var pinned pinataResponse
	if err := json.NewDecoder(resp.Body).Decode(&pinned); err != nil {
		return "", fmt.Errorf("failed to decode pinata response: %w", err)
	}
	if pinned.IpfsHash == "" {
		return "", errors.New("pinata response has no IpfsHash")
	}

	return p.gatewayURL + "/" + pinned.IpfsHash, nil
}

// S3Store writes documents to a bucket and returns the bucket or CloudFront URL.
type S3Store struct {
	client *s3.S3
	cfg    config.AWSConfig
}

func NewS3Store(cfg config.AWSConfig) (*S3Store, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Store{client: s3.New(sess), cfg: cfg}, nil
}

func (s *S3Store) Backend() string {
	return "s3"
}

func (s *S3Store) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	key := documentKey(name)
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	if s.cfg.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(s.cfg.CloudFrontURL, "/"), key), nil
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.S3Bucket, s.cfg.Region, key), nil
}

// LocalStore keeps documents on disk for development; the server serves
// dir under baseURL.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (l *LocalStore) Backend() string {
	return "local"
}

func (l *LocalStore) Dir() string {
	return l.dir
}

func (l *LocalStore) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := documentKey(name)
	path := filepath.Join(l.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write document: %w", err)
	}
	return l.baseURL + "/" + key, nil
}

func documentKey(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	timestamp := time.Now().Format("20060102")
	return fmt.Sprintf("licenses/%s_%s%s", timestamp, uuid.New().String()[:8], ext)
}
