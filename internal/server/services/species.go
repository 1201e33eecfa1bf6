package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/verdantlab/floraid/internal/common"
	"github.com/verdantlab/floraid/internal/dbx"
	sc "github.com/verdantlab/floraid/internal/server/config"
	"github.com/verdantlab/floraid/internal/server/models"
	"github.com/verdantlab/floraid/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

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

// SpeciesService manages the plant species catalogue and its images, which
// live in object storage and are handed out as presigned URLs.
type SpeciesService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

func NewSpeciesService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config) *SpeciesService {
	return &SpeciesService{
		db:          db,
		repomanager: repomanager,
		config:      config,
	}
}

func makeImageKey() string {
	d := time.Now()
	return fmt.Sprintf("species/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *SpeciesService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
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

// Record catalogues a new species. It allocates a storage key for the
// species image and returns a presigned PUT URL the client uploads to.
// An already-catalogued scientific name is an error.
func (s *SpeciesService) Record(ctx context.Context, commonName, scientificName, genus string) (*models.PlantSpecies, string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return nil, "", err
	}

	key := makeImageKey()
	bucket := s.config.S3Bucket
	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return nil, "", err
	}

	var created *models.PlantSpecies
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Species(tx)

		exists, err := repo.Exists(ctx, scientificName)
		if err != nil {
			return fmt.Errorf("error checking species: %v", err)
		}
		if exists {
			return common.ErrorAlreadyExists
		}

		created, err = repo.Create(ctx, &models.PlantSpecies{
			CommonName:     commonName,
			ScientificName: scientificName,
			Genus:          genus,
			ImgKey:         key,
		})
		return err
	}); err != nil {
		return nil, "", err
	}

	return created, req.URL, nil
}

// GetImageURL resolves a species to a presigned GET URL for its image.
func (s *SpeciesService) GetImageURL(ctx context.Context, scientificName string) (string, error) {
	repo := s.repomanager.Species(s.db)

	sp, err := repo.FindByScientificName(ctx, scientificName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorNotFound
		}
		return "", common.ErrorInternal
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &sp.ImgKey,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
