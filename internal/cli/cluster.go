package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"semcluster/config"
	"semcluster/internal/adapter/cache"
	"semcluster/internal/adapter/chat"
	"semcluster/internal/adapter/cluster"
	"semcluster/internal/adapter/embedding"
	"semcluster/internal/adapter/export"
	"semcluster/internal/adapter/loader"
	"semcluster/internal/domain"
	"semcluster/internal/port"
	"semcluster/internal/usecase"
)

var (
	clusterInput      string
	clusterMethod     string
	clusterCount      int
	clusterOutput     string
	clusterIDColumn   string
	clusterTextColumn string
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Cluster text records and export a clustered CSV",
	Long: `Load a tabular input, group rows into text units by the identifier
column, cluster the units and write the input back out with cluster index
and title columns appended.

Examples:
  semcluster cluster --input data.csv -k 5
  semcluster cluster --input "data/*.csv" --method kmeans -k 8 -o out.csv
  semcluster cluster --input data.csv --method dbscan`,
	RunE: runCluster,
}

func init() {
	rootCmd.AddCommand(clusterCmd)
	clusterCmd.Flags().StringVarP(&clusterInput, "input", "i", "", "input CSV file or glob (required)")
	clusterCmd.Flags().StringVarP(&clusterMethod, "method", "m", "", "clustering method: llm, kmeans or dbscan (default from config)")
	clusterCmd.Flags().IntVarP(&clusterCount, "clusters", "k", 0, "target cluster count (default from config)")
	clusterCmd.Flags().StringVarP(&clusterOutput, "output", "o", "", "output CSV path (default from config)")
	clusterCmd.Flags().StringVar(&clusterIDColumn, "id-column", "", "grouping identifier column (default from config)")
	clusterCmd.Flags().StringVar(&clusterTextColumn, "text-column", "", "text payload column (default from config)")
	clusterCmd.MarkFlagRequired("input")
}

func runCluster(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	applyClusterFlags(cfg)

	// Invalid configuration is fatal before any API call is made.
	if err := cfg.Validate(); err != nil {
		return err
	}

	ds, err := loader.New(cfg.Input.IDColumn, cfg.Input.TextColumn).Load(cfg.Input.Path)
	if err != nil {
		return err
	}
	if len(ds.Units) == 0 {
		return fmt.Errorf("input contains no rows")
	}
	fmt.Printf("Loaded %d rows into %d text units\n", len(ds.Records), len(ds.Units))

	chatModel, err := newChatModel(cfg)
	if err != nil {
		return err
	}
	titles := cluster.NewTitleGenerator(chatModel, cfg.Clustering.SampleSize)

	var uc *usecase.ClusterUseCase
	switch cfg.Clustering.Method {
	case config.MethodLLM:
		llm := cluster.NewLLMClusterer(chatModel, cfg.Clustering.SampleSize, cfg.Clustering.BatchSize)
		llm.OnProgress = assignProgress(len(ds.Units))
		uc = usecase.NewLLMClusterUseCase(llm, titles)

	case config.MethodKMeans, config.MethodDBSCAN:
		embedder, closeCache, err := newEmbedder(cfg)
		if err != nil {
			return err
		}
		if closeCache != nil {
			defer closeCache()
		}

		var numeric port.VectorClusterer
		if cfg.Clustering.Method == config.MethodKMeans {
			numeric = cluster.NewKMeans(cfg.Clustering.Clusters, cfg.Clustering.MaxIter, cfg.Clustering.Seed)
		} else {
			numeric = cluster.NewDBSCAN(cfg.Clustering.Eps, cfg.Clustering.MinPoints)
		}

		fmt.Printf("Embedding %d units with %s...\n", len(ds.Units), cfg.Embedding.Model)
		uc = usecase.NewNumericClusterUseCase(embedder, numeric, titles)
	}

	out, err := uc.Run(ds.Units, cfg.Clustering.Clusters)
	if err != nil {
		return err
	}

	fallbacks := 0
	for _, a := range out.Assignments {
		if a.Outcome == domain.OutcomeFallback {
			fallbacks++
		}
	}

	fmt.Printf("\nClustering complete:\n")
	for _, r := range out.Results {
		fmt.Printf("  [%d] %s (%d units)\n", r.Index, r.Title, len(r.Members))
	}
	if fallbacks > 0 {
		fmt.Printf("  %d unit(s) fell back to cluster %d\n", fallbacks, cluster.FallbackCluster)
	}

	writer := export.NewWriter(cfg.Output.ClusterColumn, cfg.Output.TitleColumn)
	if err := writer.Write(cfg.Output.Path, ds.Header, ds.Records, out.Assignments, out.Titles); err != nil {
		return err
	}
	fmt.Printf("\nOutput written to: %s\n", cfg.Output.Path)

	return nil
}

func applyClusterFlags(cfg *config.Config) {
	cfg.Input.Path = clusterInput
	if clusterMethod != "" {
		cfg.Clustering.Method = clusterMethod
	}
	if clusterCount > 0 {
		cfg.Clustering.Clusters = clusterCount
	}
	if clusterOutput != "" {
		cfg.Output.Path = clusterOutput
	}
	if clusterIDColumn != "" {
		cfg.Input.IDColumn = clusterIDColumn
	}
	if clusterTextColumn != "" {
		cfg.Input.TextColumn = clusterTextColumn
	}
}

func newChatModel(cfg *config.Config) (port.ChatModel, error) {
	switch cfg.Chat.Provider {
	case "openai":
		return chat.NewOpenAIClient(cfg.Chat.APIKeyEnv, cfg.Chat.Model, cfg.Chat.BaseURL)
	case "azure":
		return chat.NewAzureClient(cfg.Chat.APIKeyEnv, cfg.Chat.Model, cfg.Chat.BaseURL, cfg.Chat.APIVersion)
	default:
		return nil, fmt.Errorf("unsupported chat provider: %s", cfg.Chat.Provider)
	}
}

func newEmbedder(cfg *config.Config) (port.Embedder, func() error, error) {
	var embedder port.Embedder
	var err error

	switch cfg.Embedding.Provider {
	case "openai":
		embedder, err = embedding.NewOpenAIClient(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model,
			cfg.Embedding.BaseURL, cfg.Embedding.Dimension, cfg.Embedding.BatchSize)
	case "azure":
		embedder, err = embedding.NewAzureClient(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model,
			cfg.Embedding.BaseURL, cfg.Embedding.APIVersion, cfg.Embedding.Dimension, cfg.Embedding.BatchSize)
	case "mock":
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimension)
	default:
		return nil, nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	if !cfg.Embedding.Cache {
		return embedder, nil, nil
	}

	if err := config.EnsureStateDir(GetRootDir()); err != nil {
		return nil, nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	c, err := cache.Open(config.CacheDBPath(GetRootDir()))
	if err != nil {
		return nil, nil, err
	}
	return cache.NewCachedEmbedder(embedder, c), c.Close, nil
}

func assignProgress(total int) func(done, total int) {
	bar := progressbar.NewOptions(total,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Assigning[reset]"),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
	return func(done, _ int) {
		bar.Set(done)
	}
}
