package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/Nuvio/internal/models"
	"github.com/soaringjerry/Nuvio/internal/services"
)

func newQuestionsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "questions <type>",
		Short: "List the questions of a questionnaire (phq9, who5, scl90)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := models.ParseAssessmentType(args[0])
			if err != nil {
				return err
			}
			qs, err := services.Questions(t)
			if err != nil {
				return err
			}
			return opts.write(cmd.OutOrStdout(), qs)
		},
	}
}

type scoreOutput struct {
	Type    models.AssessmentType   `json:"type" yaml:"type"`
	Result  models.AssessmentResult `json:"result" yaml:"result"`
	Percent *int                    `json:"percent,omitempty" yaml:"percent,omitempty"`
}

func newScoreCmd(opts *rootOptions) *cobra.Command {
	var answers string
	cmd := &cobra.Command{
		Use:   "score <type>",
		Short: "Score a full set of answers given in question order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := models.ParseAssessmentType(args[0])
			if err != nil {
				return err
			}
			values, err := parseAnswers(answers)
			if err != nil {
				return err
			}
			session := models.AssessmentSession{Type: t, StartedAt: time.Now()}
			for i, v := range values {
				session.Responses = append(session.Responses, models.Response{
					QuestionID:  services.QuestionID(t, i+1),
					AnswerValue: v,
				})
			}
			done, err := services.CompleteSession(session, time.Now())
			if err != nil {
				return err
			}
			out := scoreOutput{Type: t, Result: *done.Result}
			if t == models.WHO5 {
				pct := services.WHO5Percent(done.Result.Score)
				out.Percent = &pct
			}
			return opts.write(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&answers, "answers", "", "Comma-separated answer values, e.g. 0,1,2")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

func parseAnswers(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid answer %q: %w", p, err)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no answers given")
	}
	return out, nil
}
