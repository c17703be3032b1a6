package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/margin/internal/printers"
	"github.com/spf13/cobra"
)

const clientDisplayTimeLayout = "Jan 2, 3:04 PM"

// Client subcommands pull projections from a running server and render them
// in the terminal. They hold no state of their own: the server process owns
// the session.

func newAnnotationsCommand() *cobra.Command {
	var serverURL string
	var summaries bool
	var showID bool

	cmd := &cobra.Command{
		Use:   "annotations",
		Short: "List the annotations held by a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if summaries {
				return printSummaries(serverURL, showID)
			}
			return printAnnotations(serverURL, showID)
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "http://127.0.0.1:8080", "Base URL of the margin-api server")
	cmd.Flags().BoolVar(&summaries, "summaries", false, "Show compact summaries instead of the full list")
	cmd.Flags().BoolVar(&showID, "show-id", false, "Include annotation identifiers")
	return cmd
}

func newNotificationsCommand() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "List the notification feed of a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printNotifications(serverURL)
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "http://127.0.0.1:8080", "Base URL of the margin-api server")
	return cmd
}

func fetchJSON(url string, target any) error {
	response, err := http.Get(url)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", response.StatusCode, url)
	}
	return json.NewDecoder(response.Body).Decode(target)
}

func printAnnotations(serverURL string, showID bool) error {
	var payload struct {
		Annotations []struct {
			ID               string `json:"id"`
			Author           string `json:"author"`
			CreatedAtSeconds int64  `json:"created_at_s"`
			Note             string `json:"note"`
			Snippet          string `json:"snippet"`
			ReplyCount       int    `json:"reply_count"`
			HighlightApplied bool   `json:"highlight_applied"`
		} `json:"annotations"`
		Count        int    `json:"count"`
		EmptyMessage string `json:"empty_message"`
	}
	if err := fetchJSON(serverURL+"/annotations", &payload); err != nil {
		return err
	}

	pp := &printers.PrettyPrint{ShowID: showID}
	pp.TitleWithCount("Annotations", payload.Count)
	if len(payload.Annotations) == 0 {
		pp.Empty(payload.EmptyMessage)
		return nil
	}

	rows := make([]printers.AnnotationRow, 0, len(payload.Annotations))
	for _, item := range payload.Annotations {
		rows = append(rows, printers.AnnotationRow{
			ID:          item.ID,
			Author:      item.Author,
			DisplayTime: time.Unix(item.CreatedAtSeconds, 0).UTC().Format(clientDisplayTimeLayout),
			Note:        item.Note,
			Snippet:     item.Snippet,
			ReplyCount:  item.ReplyCount,
			Highlighted: item.HighlightApplied,
		})
	}
	pp.Annotations(rows...)
	return nil
}

func printSummaries(serverURL string, showID bool) error {
	var payload struct {
		Summaries []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
			Meta  string `json:"meta"`
		} `json:"summaries"`
		EmptyMessage string `json:"empty_message"`
	}
	if err := fetchJSON(serverURL+"/annotations/summaries", &payload); err != nil {
		return err
	}

	pp := &printers.PrettyPrint{ShowID: showID}
	pp.TitleWithCount("My Annotations", len(payload.Summaries))
	if len(payload.Summaries) == 0 {
		pp.Empty(payload.EmptyMessage)
		return nil
	}

	rows := make([]printers.SummaryRow, 0, len(payload.Summaries))
	for _, item := range payload.Summaries {
		rows = append(rows, printers.SummaryRow{ID: item.ID, Title: item.Title, Meta: item.Meta})
	}
	pp.Summaries(rows...)
	return nil
}

func printNotifications(serverURL string) error {
	var payload struct {
		Notifications []struct {
			Title            string `json:"title"`
			Body             string `json:"body"`
			CreatedAtSeconds int64  `json:"created_at_s"`
			Read             bool   `json:"read"`
		} `json:"notifications"`
		Unread       int    `json:"unread"`
		EmptyMessage string `json:"empty_message"`
	}
	if err := fetchJSON(serverURL+"/notifications", &payload); err != nil {
		return err
	}

	pp := &printers.PrettyPrint{}
	pp.TitleWithCount("Notifications", len(payload.Notifications))
	if len(payload.Notifications) == 0 {
		pp.Empty(payload.EmptyMessage)
		return nil
	}

	rows := make([]printers.NotificationRow, 0, len(payload.Notifications))
	for _, item := range payload.Notifications {
		rows = append(rows, printers.NotificationRow{
			Title:       item.Title,
			Body:        item.Body,
			DisplayTime: time.Unix(item.CreatedAtSeconds, 0).UTC().Format(clientDisplayTimeLayout),
			Read:        item.Read,
		})
	}
	pp.Notifications(rows...)
	fmt.Printf("Unread: %d\n", payload.Unread)
	return nil
}
