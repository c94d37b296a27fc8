package mergesubs

import (
	"errors"
	"net/http"

	"github.com/jaym/mergesubs/api"
	"github.com/jaym/mergesubs/metadata"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the merge catalog over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig()
		if err != nil {
			return err
		}
		if cfg.Catalog.Path == "" {
			return errors.New("serve needs a catalog (--catalog or catalog.path)")
		}

		catalog, err := metadata.OpenCatalog(cfg.Catalog.Path)
		if err != nil {
			return err
		}
		defer catalog.Close()

		srv := &http.Server{
			Addr:    cfg.Server.Listen,
			Handler: api.NewApiHandler(catalog),
		}
		go func() {
			<-cmd.Context().Done()
			srv.Close() // nolint: errcheck
		}()

		log.Info().Str("addr", cfg.Server.Listen).Str("catalog", cfg.Catalog.Path).Msg("Listening")
		err = srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	},
}

var searchCmd = &cobra.Command{
	Use:   "search query",
	Short: "Search merged cues in the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := LoadConfig()
		if err != nil {
			return err
		}
		if cfg.Catalog.Path == "" {
			return errors.New("search needs a catalog (--catalog or catalog.path)")
		}

		catalog, err := metadata.OpenCatalog(cfg.Catalog.Path)
		if err != nil {
			return err
		}
		defer catalog.Close()

		results, err := catalog.Search(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		if results == nil {
			results = []metadata.SearchResult{}
		}
		return printJSON(cmd, results)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8991", "address to listen on")
	cobra.CheckErr(viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("addr")))

	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().Int("limit", metadata.DefaultListLimit, "maximum number of results")
}
