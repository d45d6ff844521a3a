package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/picogrid/daidalus-go/cmd/daa-sim/config"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Manage configured traffic-feed endpoints",
}

var envListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured feed endpoints",
	RunE:  listFeeds,
}

var envAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new feed endpoint",
	RunE:  addFeed,
}

var envRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a feed endpoint",
	RunE:  removeFeed,
}

func init() {
	envCmd.AddCommand(envListCmd)
	envCmd.AddCommand(envAddCmd)
	envCmd.AddCommand(envRemoveCmd)
}

func listFeeds(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFeeds()
	if err != nil {
		return fmt.Errorf("load feeds config: %w", err)
	}
	if len(cfg.Endpoints) == 0 {
		fmt.Println("No feed endpoints configured")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tURL\tREALM\tCLIENT ID")
	_, _ = fmt.Fprintln(w, "----\t---\t-----\t---------")
	for _, e := range cfg.Endpoints {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Name, e.URL, e.Realm, e.ClientID)
	}
	return w.Flush()
}

func addFeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFeeds()
	if err != nil {
		return fmt.Errorf("load feeds config: %w", err)
	}

	var e config.FeedEndpoint
	if err := survey.AskOne(&survey.Input{Message: "Feed name:"}, &e.Name, survey.WithValidator(survey.Required)); err != nil {
		return err
	}
	for _, existing := range cfg.Endpoints {
		if existing.Name == e.Name {
			return fmt.Errorf("feed %s already exists", e.Name)
		}
	}
	if err := survey.AskOne(&survey.Input{Message: "Base URL:"}, &e.URL, survey.WithValidator(survey.Required)); err != nil {
		return err
	}
	if err := survey.AskOne(&survey.Input{Message: "OAuth realm (blank for API key auth):"}, &e.Realm); err != nil {
		return err
	}
	if e.Realm != "" {
		if err := survey.AskOne(&survey.Input{Message: "OAuth client ID:"}, &e.ClientID, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	} else {
		if err := survey.AskOne(&survey.Input{Message: "Environment variable holding the API key:"}, &e.APIKey, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	}

	cfg.Endpoints = append(cfg.Endpoints, e)
	if err := config.SaveFeeds(cfg); err != nil {
		return fmt.Errorf("save feeds config: %w", err)
	}
	fmt.Printf("Feed %s added\n", e.Name)
	return nil
}

func removeFeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFeeds()
	if err != nil {
		return fmt.Errorf("load feeds config: %w", err)
	}
	if len(cfg.Endpoints) == 0 {
		fmt.Println("No feed endpoints to remove")
		return nil
	}

	names := make([]string, len(cfg.Endpoints))
	for i, e := range cfg.Endpoints {
		names[i] = e.Name
	}
	var selected string
	if err := survey.AskOne(&survey.Select{Message: "Select feed to remove:", Options: names}, &selected); err != nil {
		return err
	}

	kept := make([]config.FeedEndpoint, 0, len(cfg.Endpoints)-1)
	for _, e := range cfg.Endpoints {
		if e.Name != selected {
			kept = append(kept, e)
		}
	}
	cfg.Endpoints = kept
	if err := config.SaveFeeds(cfg); err != nil {
		return fmt.Errorf("save feeds config: %w", err)
	}
	fmt.Printf("Feed %s removed\n", selected)
	return nil
}
