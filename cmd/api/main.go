package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/drompincen/archviz-go/config"
	"github.com/drompincen/archviz-go/internal/diagrams/catalog"
	diagramhttp "github.com/drompincen/archviz-go/internal/diagrams/http"
	"github.com/drompincen/archviz-go/internal/diagrams/repository"
	"github.com/drompincen/archviz-go/internal/diagrams/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	repo, err := buildRepository(cfg)
	if err != nil {
		log.Fatalf("diagram store: %v", err)
	}

	cat := catalog.New(cfg.Catalog.Dirs...)
	svc := service.New(repo, cat)

	r := gin.Default()
	r.Use(cors.Default())
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	diagramhttp.New(svc).Register(r.Group("/api/diagrams"))

	log.Printf("listening on :%s (store=%s)", cfg.Server.Port, cfg.Store.Backend)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// buildRepository selects the backend once at startup. Nothing past
// this point branches on backend identity.
func buildRepository(cfg *config.Config) (repository.DiagramRepository, error) {
	if cfg.Store.Backend == config.StoreMemory {
		return repository.NewMemoryRepository(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(cfg.Store.Region)}
	if cfg.Store.Endpoint != "" {
		// Local DynamoDB accepts any static credentials.
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", "")))
	}
	awsCfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Store.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Store.Endpoint)
		}
	})
	return repository.NewDynamoRepository(ctx, client, cfg.Store.Table)
}
