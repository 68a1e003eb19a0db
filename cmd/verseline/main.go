// Command verseline matches photo captions to lyric lines from the
// user's own music library.
package main

import (
	"fmt"
	"os"

	configfile "github.com/verseline/verseline/internal/adapters/driven/config/file"
	embeddingopenai "github.com/verseline/verseline/internal/adapters/driven/embedding/openai"
	"github.com/verseline/verseline/internal/adapters/driven/genius"
	llmopenai "github.com/verseline/verseline/internal/adapters/driven/llm/openai"
	"github.com/verseline/verseline/internal/adapters/driven/spotify"
	"github.com/verseline/verseline/internal/adapters/driven/storage/fsblob"
	"github.com/verseline/verseline/internal/adapters/driven/storage/sqlite"
	vectormemory "github.com/verseline/verseline/internal/adapters/driven/vector/memory"
	"github.com/verseline/verseline/internal/adapters/driven/vector/pinecone"
	"github.com/verseline/verseline/internal/adapters/driving/cli"
	"github.com/verseline/verseline/internal/cleaner"
	"github.com/verseline/verseline/internal/core/ports/driven"
	"github.com/verseline/verseline/internal/core/services"
	"github.com/verseline/verseline/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	prompts, err := configfile.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("loading prompts: %w", err)
	}

	// Driven adapters. Missing credentials disable the adapter rather
	// than aborting startup, so unrelated commands keep working.
	var library driven.MusicLibrary
	if token := config.GetString("spotify.access_token"); token != "" {
		library, err = spotify.NewLibrary(spotify.Config{AccessToken: token})
		if err != nil {
			return fmt.Errorf("spotify: %w", err)
		}
	} else {
		logger.Debug("spotify.access_token not set, library disabled")
	}

	var source driven.LyricsSource
	if token := config.GetString("genius.access_token"); token != "" {
		source, err = genius.NewSource(genius.Config{AccessToken: token})
		if err != nil {
			return fmt.Errorf("genius: %w", err)
		}
	} else {
		logger.Debug("genius.access_token not set, lyrics source disabled")
	}

	var embedder driven.EmbeddingService
	var llm *llmopenai.LLMService
	if key := config.GetString("openai.api_key"); key != "" {
		embedder, err = embeddingopenai.NewEmbeddingService(embeddingopenai.Config{
			APIKey: key,
			Model:  config.GetString("openai.embedding_model"),
		})
		if err != nil {
			return fmt.Errorf("openai embeddings: %w", err)
		}
		llm, err = llmopenai.NewLLMService(llmopenai.LLMConfig{
			APIKey: key,
			Model:  config.GetString("openai.model"),
		})
		if err != nil {
			return fmt.Errorf("openai llm: %w", err)
		}
	} else {
		logger.Debug("openai.api_key not set, embeddings and LLM disabled")
	}

	// Pinecone when configured, otherwise the in-process index. The
	// memory index does not survive restarts, so it only suits trials.
	var index driven.VectorIndex
	if host := config.GetString("pinecone.host"); host != "" {
		index, err = pinecone.NewIndex(pinecone.Config{
			Host:   host,
			APIKey: config.GetString("pinecone.api_key"),
		})
		if err != nil {
			return fmt.Errorf("pinecone: %w", err)
		}
	} else {
		logger.Debug("pinecone.host not set, using in-memory vector index")
		index = vectormemory.New()
	}

	lyrics, err := fsblob.NewStore(config.GetString("storage.lyrics_dir"))
	if err != nil {
		return fmt.Errorf("lyric store: %w", err)
	}

	catalogue, err := sqlite.NewStore(config.GetString("storage.data_dir"))
	if err != nil {
		return fmt.Errorf("catalogue store: %w", err)
	}
	defer catalogue.Close()

	// Core services.
	cleanCfg := cleaner.NewConfig(config.GetStringSlice("cleaner.extra_profanity"))
	ingest := services.NewIngestService(
		library, source, cleaner.New(cleanCfg),
		embedder, index, lyrics, catalogue,
	)

	var llmService driven.LLMService
	var visionService driven.VisionService
	if llm != nil {
		llmService = llm
		visionService = llm
	}
	picker := services.NewSelectionService(embedder, index, llmService, prompts)
	caption := services.NewCaptionService(visionService, prompts)

	cli.SetServices(ingest, picker, caption)
	cli.SetVersion(version)
	return cli.Execute()
}
