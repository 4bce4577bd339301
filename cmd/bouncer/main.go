package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sable-ops/bouncer/internal/opcontrol"
)

var version = "dev"

// getControlClient finds the running supervisor's control socket by
// walking up from the current directory for a bouncer.json discovery
// file, and returns a client dialed against it.
func getControlClient() (*opcontrol.Client, error) {
	info, err := opcontrol.FindControlInfo("")
	if err != nil {
		return nil, err
	}
	return opcontrol.NewClient(info.SocketPath), nil
}

func main() {
	logLevel := &slog.LevelVar{}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	viper.SetEnvPrefix("BOUNCER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:          "bouncer",
		Short:        "Supervise a game server, moderate players, and gate privileged commands behind a community vote",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool(FlagVerbose, false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().String(FlagConfig, "", "Config file path (default: .bouncer/config.yaml)")
	rootCmd.PersistentFlags().String(FlagLogFile, "", "Log file path")
	rootCmd.PersistentFlags().String(FlagDataDir, "", "Data directory (players, bans, requests)")
	rootCmd.PersistentFlags().String(FlagSocketPath, "", "Unix socket path for operator control")
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("bouncer %s\n", version)
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve <serverCommand> [port]",
		Short: "Start the supervised server and admin API",
		Long: `Start bouncer: spawn serverCommand as a supervised child, classify its
console output, enforce the forbidden-command and ban tables, run the
community vote queue for privileged commands, and serve the admin HTTP
API and (if a TTY is attached) the terminal dashboard.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if viper.GetBool(FlagVerbose) {
				logLevel.Set(slog.LevelDebug)
			}
			return runServe(cmd, args, logLevel)
		},
	}
	serveCmd.Flags().Int(FlagPort, 0, "HTTP port for the admin API (default 8080, from config)")
	serveCmd.Flags().Bool(FlagDaemon, false, "Run in the background")
	serveCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the running supervisor's status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getControlClient()
			if err != nil {
				return err
			}
			status, err := client.Status()
			if err != nil {
				return err
			}

			if viper.GetBool(FlagJSON) {
				data, err := json.MarshalIndent(status, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal status: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Status: %s\n", status.Status)
			fmt.Printf("Child running: %t\n", status.ChildRunning)
			fmt.Printf("Uptime: %s\n", status.Uptime)
			fmt.Printf("Started: %s\n", status.StartTime)
			fmt.Printf("Online players: %d\n", status.OnlineCount)
			fmt.Printf("Banned players: %d\n", status.BannedCount)
			fmt.Printf("Pending votes: %d\n", status.PendingVotes)
			fmt.Printf("Accepting new requests: %t\n", status.VotesAccepted)
			return nil
		},
	}
	statusCmd.Flags().Bool(FlagJSON, false, "Output status as JSON")
	_ = viper.BindPFlag(FlagJSON, statusCmd.Flags().Lookup(FlagJSON))

	pauseCmd := &cobra.Command{
		Use:   "pause",
		Short: "Stop accepting new command-vote requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getControlClient()
			if err != nil {
				return err
			}
			if err := client.Pause(); err != nil {
				return err
			}
			fmt.Println("Paused - no new command requests will be accepted")
			return nil
		},
	}

	resumeCmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume accepting command-vote requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getControlClient()
			if err != nil {
				return err
			}
			if err := client.Resume(); err != nil {
				return err
			}
			fmt.Println("Resumed - command requests are accepted again")
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the supervisor and its child process",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getControlClient()
			if err != nil {
				return err
			}
			force := viper.GetBool(FlagForce)
			if err := client.Stop(force); err != nil {
				return err
			}
			if force {
				fmt.Println("Stop requested - child process will be killed immediately")
			} else {
				fmt.Println("Stop requested - child process will be asked to exit gracefully")
			}
			return nil
		},
	}
	stopCmd.Flags().Bool(FlagForce, false, "Kill the child with SIGKILL instead of asking it to exit with SIGTERM")
	stopCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "View recent structured log lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			logPath := viper.GetString(FlagLogFile)
			if info, err := opcontrol.FindControlInfo(""); err == nil {
				logPath = info.LogPath
			}
			if logPath == "" {
				return fmt.Errorf("no log file path known; pass --log-file or run inside a project with a running bouncer")
			}

			if viper.GetBool(FlagFollow) {
				return tailFollow(cmd.Context(), logPath)
			}
			return tailLast(logPath, viper.GetInt(FlagCount))
		},
	}
	logsCmd.Flags().Bool(FlagFollow, false, "Follow the log file (like tail -f)")
	logsCmd.Flags().Int(FlagCount, 20, "Number of recent lines to show")
	logsCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	rootCmd.AddCommand(versionCmd, serveCmd, statusCmd, pauseCmd, resumeCmd, stopCmd, logsCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// tailLast prints the last n lines of the log file at path.
func tailLast(path string, n int) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No log output yet (log file does not exist)")
			return nil
		}
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read log file: %w", err)
	}

	start := 0
	if len(lines) > n {
		start = len(lines) - n
	}
	for _, line := range lines[start:] {
		fmt.Println(line)
	}
	return nil
}

// tailFollow prints new lines appended to the log file at path, like
// `tail -f`, until ctx is cancelled.
func tailFollow(ctx context.Context, path string) error {
	file, err := waitForFile(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Seek(0, 2); err != nil {
		return fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReader(file)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		line, err := reader.ReadString('\n')
		if line != "" {
			fmt.Print(line)
		}
		if err != nil {
			time.Sleep(200 * time.Millisecond)
		}
	}
}

func waitForFile(ctx context.Context, path string) (*os.File, error) {
	file, err := os.Open(path)
	if err == nil {
		return file, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	fmt.Println("Waiting for log file to be created...")
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(500 * time.Millisecond):
			file, err := os.Open(path)
			if err == nil {
				return file, nil
			}
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("open log file: %w", err)
			}
		}
	}
}
