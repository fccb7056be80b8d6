package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pmp_prep_backend/internal/config"
	"pmp_prep_backend/internal/model"
	"pmp_prep_backend/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ReportArchiver keeps a JSON copy of every completed exam report in object
// storage. Archiving is an enhancement: failures are logged, never surfaced
// to the exam flow. A nil archiver (no endpoint configured) is valid.
type ReportArchiver struct {
	client *minio.Client
	bucket string
}

func NewReportArchiver(cfg *config.ArchiveConfig) (*ReportArchiver, error) {
	if cfg.Endpoint == "" {
		return nil, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}

	return &ReportArchiver{client: client, bucket: cfg.Bucket}, nil
}

func (a *ReportArchiver) Archive(report *model.ExamReport) {
	if a == nil {
		return
	}

	raw, err := json.Marshal(report)
	if err != nil {
		logger.Log.Warn("report archive marshal failed", zap.String("sessionID", report.SessionID), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	objectName := fmt.Sprintf("reports/%s.json", report.SessionID)
	_, err = a.client.PutObject(ctx, a.bucket, objectName, bytes.NewReader(raw), int64(len(raw)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		logger.Log.Warn("report archive upload failed", zap.String("sessionID", report.SessionID), zap.Error(err))
		return
	}
	logger.Log.Info("report archived", zap.String("sessionID", report.SessionID), zap.String("object", objectName))
}
