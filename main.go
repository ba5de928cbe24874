// Civic Assist is a municipal infrastructure issue reporting service
// with a retrieval-grounded assistant for citizen questions.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"civic-assist/internal/api"
	"civic-assist/internal/config"
	"civic-assist/internal/embeddings"
	"civic-assist/internal/llm"
	"civic-assist/internal/relevance"
	"civic-assist/internal/scope"
	"civic-assist/internal/search"
	"civic-assist/internal/storage"
	"civic-assist/internal/vocab"
)

func main() {
	log.Println("Starting civic assist service...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	vocabulary, err := vocab.Load(cfg.Vocab.File)
	if err != nil {
		log.Fatal("Failed to load vocabulary:", err)
	}

	ollamaTimeout := time.Duration(cfg.Services.Ollama.Timeout) * time.Second

	var embedder embeddings.Embedder
	if cfg.Assist.Embedder == "ollama" {
		embedder = embeddings.NewOllamaEmbedder(cfg.Services.Ollama.BaseURL, cfg.Services.Ollama.EmbeddingModel, ollamaTimeout)
	} else {
		embedder = embeddings.NewHashEmbedder()
	}

	knowledge, err := storage.NewKnowledgeStore(context.Background(), embedder, storage.DefaultKnowledge())
	if err != nil {
		log.Fatal("Failed to initialize knowledge store:", err)
	}

	reportStore, err := storage.NewReportStore(cfg.Database.Path)
	if err != nil {
		log.Fatal("Failed to initialize report store:", err)
	}
	defer func() {
		if err := reportStore.Close(); err != nil {
			log.Printf("Error closing report store: %v", err)
		}
	}()

	scorer := relevance.NewScorer(vocabulary, time.Now)
	filter := scope.NewFilter(reportStore, vocabulary)

	controller := search.NewController(knowledge, reportStore, filter, embedder, scorer, vocabulary, search.Options{
		MaxResults:              cfg.Assist.MaxResults,
		SimilarityThreshold:     cfg.Assist.SimilarityThreshold,
		UserSimilarityThreshold: cfg.Assist.UserSimilarityThreshold,
		FallbackThreshold:       cfg.Assist.FallbackThreshold,
	})

	llmClient := llm.NewOllamaClient(cfg.Services.Ollama.BaseURL, cfg.Services.Ollama.LLMModel, ollamaTimeout)

	server := api.NewServer(cfg, embedder, reportStore, filter, controller, llmClient)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	if err := server.Run(addr); err != nil {
		log.Printf("Failed to start server: %v", err)
		return
	}
}
