package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/Nuvio/internal/api"
	"github.com/soaringjerry/Nuvio/internal/models"
	"github.com/soaringjerry/Nuvio/internal/services"
)

type snapshotFlags struct {
	path string
	user string
}

func (f *snapshotFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.path, "snapshot", "", "Path to a memory-store JSON snapshot")
	cmd.Flags().StringVar(&f.user, "user", "", "User ID or email (optional when the snapshot has one user)")
	_ = cmd.MarkFlagRequired("snapshot")
}

type userRecords struct {
	userID      string
	moods       []models.MoodEntry
	chat        []models.ChatMessage
	assessments []models.AssessmentSession
}

func (f *snapshotFlags) load() (*userRecords, error) {
	snap, err := api.LoadSnapshot(f.path)
	if err != nil {
		return nil, err
	}
	uid, err := resolveUser(snap, f.user)
	if err != nil {
		return nil, err
	}
	return &userRecords{
		userID:      uid,
		moods:       snap.Moods[uid],
		chat:        snap.Chat[uid],
		assessments: snap.Assessments[uid],
	}, nil
}

func resolveUser(snap *api.Snapshot, want string) (string, error) {
	if want != "" {
		for _, u := range snap.Users {
			if u.ID == want || u.Email == want {
				return u.ID, nil
			}
		}
		if _, ok := snap.Moods[want]; ok {
			return want, nil
		}
		return "", fmt.Errorf("user %q not found in snapshot", want)
	}
	ids := map[string]struct{}{}
	for _, u := range snap.Users {
		ids[u.ID] = struct{}{}
	}
	for uid := range snap.Moods {
		ids[uid] = struct{}{}
	}
	if len(ids) != 1 {
		all := make([]string, 0, len(ids))
		for id := range ids {
			all = append(all, id)
		}
		sort.Strings(all)
		return "", fmt.Errorf("snapshot has %d users %v, pass --user", len(all), all)
	}
	for id := range ids {
		return id, nil
	}
	return "", nil
}

type insightsOutput struct {
	UserID          string                  `json:"user_id" yaml:"user_id"`
	Insights        models.WeeklyInsights   `json:"insights" yaml:"insights"`
	Direction       string                  `json:"direction" yaml:"direction"`
	Tip             string                  `json:"tip,omitempty" yaml:"tip,omitempty"`
	Recommendations []models.Recommendation `json:"recommendations" yaml:"recommendations"`
}

func newInsightsCmd(opts *rootOptions) *cobra.Command {
	var (
		sf   snapshotFlags
		days int
		at   string
		tz   string
	)
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Aggregate a user's moods over a trailing window of days",
		RunE: func(cmd *cobra.Command, _ []string) error {
			recs, err := sf.load()
			if err != nil {
				return err
			}
			loc, err := time.LoadLocation(tz)
			if err != nil {
				return fmt.Errorf("invalid --tz: %w", err)
			}
			end := time.Now()
			if at != "" {
				if end, err = time.Parse(time.RFC3339, at); err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
			}
			ins := services.Aggregate(recs.moods, end.In(loc), days)
			return opts.write(cmd.OutOrStdout(), insightsOutput{
				UserID:          recs.userID,
				Insights:        ins,
				Direction:       services.WeeklyDirection(ins),
				Tip:             services.DailyTip(ins),
				Recommendations: services.GenerateWeekly(ins),
			})
		},
	}
	sf.bind(cmd)
	cmd.Flags().IntVar(&days, "days", services.DefaultWindowDays, "Window length in days")
	cmd.Flags().StringVar(&at, "at", "", "Window end as RFC3339 (default: now)")
	cmd.Flags().StringVar(&tz, "tz", "UTC", "IANA time zone used for day boundaries")
	return cmd
}

type reportOutput struct {
	Summary         string                  `json:"summary" yaml:"summary"`
	Patterns        []string                `json:"patterns" yaml:"patterns"`
	Recommendations []models.Recommendation `json:"recommendations" yaml:"recommendations"`
	Moods           int                     `json:"moods" yaml:"moods"`
	Assessments     int                     `json:"assessments" yaml:"assessments"`
	ChatMessages    int                     `json:"chat_messages" yaml:"chat_messages"`
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	var (
		sf   snapshotFlags
		text bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build the weekly report for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			recs, err := sf.load()
			if err != nil {
				return err
			}
			rep := services.BuildReport(services.ReportInput{
				Moods:            recs.moods,
				ChatMessageCount: len(recs.chat),
				Assessments:      recs.assessments,
				GeneratedAt:      time.Now().UTC(),
			})
			if text {
				_, err := fmt.Fprint(cmd.OutOrStdout(), rep.Text)
				return err
			}
			return opts.write(cmd.OutOrStdout(), reportOutput{
				Summary:         rep.Summary,
				Patterns:        rep.Patterns,
				Recommendations: rep.Recommendations,
				Moods:           len(rep.Payload.Moods),
				Assessments:     len(rep.Payload.Assessments),
				ChatMessages:    len(recs.chat),
			})
		},
	}
	sf.bind(cmd)
	cmd.Flags().BoolVar(&text, "text", false, "Print the plain-text rendering only")
	return cmd
}

func newExportCmd() *cobra.Command {
	var sf snapshotFlags
	cmd := &cobra.Command{
		Use:       "export <moods|assessments>",
		Short:     "Write a user's records as CSV",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{services.ExportMoods, services.ExportAssessments},
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := sf.load()
			if err != nil {
				return err
			}
			var data []byte
			switch args[0] {
			case services.ExportMoods:
				data, err = services.ExportMoodsCSV(recs.moods)
			case services.ExportAssessments:
				data, err = services.ExportAssessmentsCSV(recs.assessments)
			default:
				return fmt.Errorf("unknown export kind %q", args[0])
			}
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	sf.bind(cmd)
	return cmd
}
