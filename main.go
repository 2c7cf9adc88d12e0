package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/tanpawarit/dbchat/agent/classifier"
	contractx "github.com/tanpawarit/dbchat/agent/contract"
	"github.com/tanpawarit/dbchat/agent/engine"
	promptx "github.com/tanpawarit/dbchat/agent/prompt"
	"github.com/tanpawarit/dbchat/agent/retrieval"
	statex "github.com/tanpawarit/dbchat/agent/state"
	toolx "github.com/tanpawarit/dbchat/agent/tool"
	usersx "github.com/tanpawarit/dbchat/agent/users"
	configx "github.com/tanpawarit/dbchat/pkg/config"
	logx "github.com/tanpawarit/dbchat/pkg/logger"
	openrouterx "github.com/tanpawarit/dbchat/pkg/openrouter"
	postgresx "github.com/tanpawarit/dbchat/pkg/postgres"
	redisx "github.com/tanpawarit/dbchat/pkg/redis"
)

func main() {
	ctx := context.Background()

	logCfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*logCfg)

	openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
	postgresCfg := configx.MustNew[postgresx.Config]("POSTGRES")
	redisCfg := configx.MustNew[redisx.Config]("REDIS")

	registry := toolx.NewRegistry()

	repo := buildRepository(ctx, postgresCfg)
	store := buildStore(ctx, redisCfg)
	retriever := buildRetriever(ctx, *openRouterCfg, repo)

	chatModel, err := openRouterCfg.New(ctx)
	if err != nil {
		logx.Fatal().Err(err).Msg("create chat model")
	}

	prompts := promptx.LoadPromptSet()
	intentClassifier, err := classifier.New(ctx, chatModel, prompts.Classifier, registry)
	if err != nil {
		logx.Fatal().Err(err).Msg("create classifier")
	}

	dispatcher, err := toolx.NewDBDispatcher(registry, repo)
	if err != nil {
		logx.Fatal().Err(err).Msg("create dispatcher")
	}

	eng, err := engine.New(store, intentClassifier, retriever, dispatcher, registry)
	if err != nil {
		logx.Fatal().Err(err).Msg("create engine")
	}

	runREPL(ctx, eng)
}

// buildRepository prefers Postgres and falls back to an in-memory
// repository when no DSN is configured, so the agent stays usable for
// local experiments without a database.
func buildRepository(ctx context.Context, cfg *postgresx.Config) usersx.Repository {
	if strings.TrimSpace(cfg.DSN) == "" {
		logx.Info().Msg("no postgres dsn configured, using in-memory user repository")
		return usersx.NewMemoryRepository()
	}

	db, err := cfg.New(ctx)
	if err != nil {
		logx.Fatal().Err(err).Msg("connect postgres")
	}
	repo, err := usersx.NewBunRepository(db)
	if err != nil {
		logx.Fatal().Err(err).Msg("create user repository")
	}
	if err := repo.Init(ctx); err != nil {
		logx.Fatal().Err(err).Msg("ensure users table")
	}
	return repo
}

func buildStore(ctx context.Context, cfg *redisx.Config) statex.Store {
	if strings.TrimSpace(cfg.URL) == "" {
		logx.Info().Msg("no redis url configured, using in-memory session store")
		return statex.NewMemoryStore()
	}

	client, err := cfg.New(ctx)
	if err != nil {
		logx.Fatal().Err(err).Msg("connect redis")
	}
	store, err := statex.NewRedisStore(client)
	if err != nil {
		logx.Fatal().Err(err).Msg("create session store")
	}
	return store
}

// buildRetriever wires the embedding-backed context index. A missing
// API key degrades to no retrieval rather than failing startup.
func buildRetriever(ctx context.Context, cfg openrouterx.Config, repo usersx.Repository) contractx.Retriever {
	client := openrouterx.NewClient(cfg)
	if client == nil {
		logx.Info().Msg("no embeddings client available, running without retrieval context")
		return nil
	}

	embedder, err := retrieval.NewOpenAIEmbedder(client, cfg.EmbeddingModel)
	if err != nil {
		logx.Fatal().Err(err).Msg("create embedder")
	}
	index, err := retrieval.NewIndex(embedder, repo)
	if err != nil {
		logx.Fatal().Err(err).Msg("create retrieval index")
	}
	if err := index.Refresh(ctx); err != nil {
		logx.Warn().Err(err).Msg("initial retrieval index build failed, continuing with empty index")
	}
	return index
}

func runREPL(ctx context.Context, eng *engine.Engine) {
	sessionID := uuid.NewString()

	fmt.Println("=========================================")
	fmt.Println(" Database Chat Agent")
	fmt.Println(" Manage users in plain language.")
	fmt.Println(" Type 'q' to quit, 'cancel' to abandon an")
	fmt.Println(" operation in progress.")
	fmt.Println("=========================================")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		reply, done, err := eng.SubmitTurn(ctx, sessionID, text)
		if err != nil {
			logx.Error().Str("session_id", sessionID).Err(err).Msg("turn failed")
			fmt.Println("agent> Something went wrong on my side. Please try again.")
			continue
		}
		fmt.Printf("agent> %s\n", reply)
		if done {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logx.Error().Err(err).Msg("read input")
	}
}
