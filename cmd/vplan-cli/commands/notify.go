package commands

import (
	"fmt"

	"vplan-backend/lib/serviceutil"
	"vplan-backend/lib/telemetry"
	"vplan-backend/services/notify"

	"github.com/spf13/cobra"
)

var (
	notifyTitle   *string
	notifyMessage *string
)

func init() {
	notifyTitle = notifyCmd.Flags().String("title", "Vertretungsplan", "The message title.")
	notifyMessage = notifyCmd.Flags().String("message", "Testnachricht", "The message body.")
	rootCmd.AddCommand(notifyCmd)
}

var notifyCmd = &cobra.Command{
	Use:   "notify-test <topic>",
	Short: "Publishes a test message through the configured transport.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		transport := notify.NewTransport(cfg.NtfyOptions(), telemetry.SlogAPI{})
		if _, ok := transport.(notify.NoopTransport); ok {
			fmt.Println("ntfy.url is not configured, the message is dropped")
		}

		err = transport.Publish(cmd.Context(), args[0], notify.Message{
			Title: *notifyTitle,
			Body:  *notifyMessage,
			Tags:  []string{"vplan", "test"},
		})
		if err != nil {
			serviceutil.Fatal("failed to publish", err)
		}
		fmt.Printf("published to %s\n", args[0])
	},
}
