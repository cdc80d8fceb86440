package commands

import (
	"fmt"

	"vplan-backend/internal/config"
	"vplan-backend/internal/pipeline"
	"vplan-backend/lib/serviceutil"
	"vplan-backend/lib/textutil"
	"vplan-backend/lib/topics"

	"github.com/spf13/cobra"
)

var (
	subscribeTeacher   *bool
	unsubscribeTeacher *bool
)

func init() {
	subscribeTeacher = subscribeCmd.Flags().Bool("teacher", false, "Treat the argument as a teacher abbreviation.")
	unsubscribeTeacher = unsubscribeCmd.Flags().Bool("teacher", false, "Treat the argument as a teacher abbreviation.")
	rootCmd.AddCommand(subscribeCmd)
	rootCmd.AddCommand(unsubscribeCmd)
}

func splitLabel(label string) []string {
	return topics.SplitClasses(label)
}

// subscriptionTopics returns the topics a device subscribes to for a
// class label (every class it denotes) or a teacher.
func subscriptionTopics(cfg config.Config, value string, teacher bool) ([]string, error) {
	expander := cfg.Expander()
	if teacher {
		return []string{expander.Teacher(textutil.NormalizeTeacher(value))}, nil
	}
	return expander.Expand(value)
}

var subscribeCmd = &cobra.Command{
	Use:   "subscribe <device-token> <class-label | --teacher abbreviation>",
	Short: "Subscribes a device to the topics of a class label or a teacher.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		topicList, err := subscriptionTopics(cfg, args[1], *subscribeTeacher)
		if err != nil {
			serviceutil.Fatal("failed to expand label", err)
		}

		database, store, err := pipeline.OpenStore(cmd.Context(), cfg)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer database.Close()

		for _, topic := range topicList {
			err = store.Subscribe(cmd.Context(), args[0], topic)
			if err != nil {
				serviceutil.Fatal("failed to subscribe", err)
			}
			fmt.Printf("subscribed to %s\n", topic)
		}
	},
}

var unsubscribeCmd = &cobra.Command{
	Use:   "unsubscribe <device-token> <class-label | --teacher abbreviation>",
	Short: "Removes the subscriptions of a device to a class label or a teacher.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		topicList, err := subscriptionTopics(cfg, args[1], *unsubscribeTeacher)
		if err != nil {
			serviceutil.Fatal("failed to expand label", err)
		}

		database, store, err := pipeline.OpenStore(cmd.Context(), cfg)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer database.Close()

		for _, topic := range topicList {
			removed, err := store.Unsubscribe(cmd.Context(), args[0], topic)
			if err != nil {
				serviceutil.Fatal("failed to unsubscribe", err)
			}
			if !removed {
				fmt.Printf("not subscribed to %s\n", topic)
				continue
			}
			fmt.Printf("unsubscribed from %s\n", topic)
		}
	},
}
