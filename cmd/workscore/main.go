// Command workscore runs scoring from the terminal: score a team roster
// file, or inspect a user's append-only score history.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/workscorehq/workscore/internal/config"
	"github.com/workscorehq/workscore/internal/connector"
	"github.com/workscorehq/workscore/internal/engine"
	"github.com/workscorehq/workscore/internal/history"
	"github.com/workscorehq/workscore/internal/monitoring"
	"github.com/workscorehq/workscore/internal/types"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "workscore",
		Short:         "Contribution scoring engine",
		Long:          "Computes per-user contribution scores with evidence trails, team-relative normalization, and derived indicators.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newScoreCmd(), newHistoryCmd())
	return root
}

// rosterFile is the YAML shape of a scoring run: team, period, and every
// member's activity variables inline.
type rosterFile struct {
	TeamID  string         `yaml:"team_id"`
	Period  string         `yaml:"period"`
	Members []rosterMember `yaml:"members"`
}

type rosterMember struct {
	UserID             string             `yaml:"user_id"`
	Role               string             `yaml:"role"`
	Activities         map[string]float64 `yaml:"activities"`
	BasePoints         float64            `yaml:"base_points"`
	DifficultyFactor   float64            `yaml:"difficulty_factor"`
	PeerReviewScore    float64            `yaml:"peer_review_score"`
	StabilityRate      float64            `yaml:"stability_rate"`
	KnowledgeIndex     float64            `yaml:"knowledge_index"`
	KudosCount         int                `yaml:"kudos_count"`
	DelaysCaused       int                `yaml:"delays_caused"`
	ReworkCount        int                `yaml:"rework_count"`
	UnresolvedBlockers int                `yaml:"unresolved_blockers"`
}

func (m rosterMember) toVariables(period string) types.ActivityVariables {
	return types.ActivityVariables{
		UserID:             m.UserID,
		Period:             period,
		Role:               m.Role,
		Activities:         m.Activities,
		BasePoints:         m.BasePoints,
		DifficultyFactor:   m.DifficultyFactor,
		PeerReviewScore:    m.PeerReviewScore,
		StabilityRate:      m.StabilityRate,
		KnowledgeIndex:     m.KnowledgeIndex,
		KudosCount:         m.KudosCount,
		DelaysCaused:       m.DelaysCaused,
		ReworkCount:        m.ReworkCount,
		UnresolvedBlockers: m.UnresolvedBlockers,
	}
}

func newScoreCmd() *cobra.Command {
	var rosterPath string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a team roster for one period",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(rosterPath)
			if err != nil {
				return fmt.Errorf("failed to read roster file: %w", err)
			}
			var roster rosterFile
			if err := yaml.Unmarshal(data, &roster); err != nil {
				return fmt.Errorf("failed to parse roster file: %w", err)
			}

			vars := make([]types.ActivityVariables, len(roster.Members))
			ids := make([]string, len(roster.Members))
			for i, m := range roster.Members {
				vars[i] = m.toVariables(roster.Period)
				ids[i] = m.UserID
			}

			store, err := history.NewStore(cfg.DataDir)
			if err != nil {
				return err
			}
			defer store.Close()

			logger := monitoring.NewLogger(cfg.LogLevel)
			orch, err := engine.New(cfg, connector.NewStatic(vars), store, nil, logger)
			if err != nil {
				return err
			}

			result, err := orch.Run(cmd.Context(), engine.RunRequest{
				TeamID: roster.TeamID,
				Period: roster.Period,
				Roster: ids,
			})
			if err != nil {
				return err
			}

			return printJSON(cmd, result)
		},
	}

	cmd.Flags().StringVar(&rosterPath, "roster", "", "path to the roster YAML file")
	cmd.MarkFlagRequired("roster")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print a user's score history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			store, err := history.NewStore(cfg.DataDir)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.GetHistory(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("no score history for user %s", userID)
			}

			return printJSON(cmd, map[string]interface{}{
				"user_id": userID,
				"points":  history.Points(records),
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id to look up")
	cmd.MarkFlagRequired("user")
	return cmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
