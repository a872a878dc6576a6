package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/domain-cutover/internal/api/validator"
	"github.com/domain-cutover/internal/render"
	"github.com/spf13/cobra"
)

// targetFlags 是 stage 和 run-all 共用的输入
type targetFlags struct {
	domains     []string
	domainsFile string
	ip          string
}

func (t *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&t.domains, "domains", nil, "domain to process (repeatable)")
	cmd.Flags().StringVar(&t.domainsFile, "domains-file", "", "file with one domain per line")
	cmd.Flags().StringVar(&t.ip, "ip", "", "new IP address for the A records")
}

// text 拼成与页面文本框相同的多行文本, 空行和空白交给 Stage Runner 处理
func (t *targetFlags) text() (string, error) {
	lines := append([]string(nil), t.domains...)
	if t.domainsFile != "" {
		f, err := os.Open(t.domainsFile)
		if err != nil {
			return "", fmt.Errorf("open domains file: %w", err)
		}
		defer f.Close()
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("read domains file: %w", err)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// prepare 准备凭据和表单输入
func (a *app) prepare(ctx context.Context, t *targetFlags) error {
	domains, err := t.text()
	if err != nil {
		return err
	}
	creds := a.loadCredentials(ctx)
	if a.creds.any() {
		// 命令行给出的凭据只写入本地镜像, 不提交到后端
		a.sess.Credentials.Set(ctx, creds)
	}
	a.sess.State.SetInput(domains, t.ip)
	return nil
}

func stageCmd(a *app) *cobra.Command {
	var t targetFlags
	cmd := &cobra.Command{
		Use:   "stage <n>",
		Short: "Run a single stage (1-4)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := validator.ValidateStageParam(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := a.prepare(ctx, &t); err != nil {
				return err
			}
			outcome, err := a.sess.Runner.RunStage(ctx, s)
			if err != nil {
				return err
			}
			render.WriteText(cmd.OutOrStdout(), s.Title(), outcome)
			return nil
		},
	}
	t.register(cmd)
	return cmd
}

func runAllCmd(a *app) *cobra.Command {
	var t targetFlags
	cmd := &cobra.Command{
		Use:   "run-all",
		Short: "Run all four stages in one backend call",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.prepare(ctx, &t); err != nil {
				return err
			}
			bundle, err := a.sess.Runner.RunAllStages(ctx)
			if err != nil {
				return err
			}
			render.WriteBundleText(cmd.OutOrStdout(), bundle)
			return nil
		},
	}
	t.register(cmd)
	return cmd
}
