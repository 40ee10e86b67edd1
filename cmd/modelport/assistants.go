package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/modelport/modelport/pkg/providers/openai"
)

var assistantsCmd = &cobra.Command{
	Use:   "assistants",
	Short: "Manage OpenAI assistants",
	Long: `List, create, show and delete assistants stored on the OpenAI side.

Examples:
  modelport assistants list --limit 5
  modelport assistants create --name "Weather bot" --instructions "Answer weather questions." --code-interpreter
  modelport assistants show asst_abc123
  modelport assistants delete asst_abc123`,
}

var assistantsListFlags struct {
	limit int
	order string
}

var assistantsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List assistants",
	Args:  cobra.NoArgs,
	RunE:  runAssistantsList,
}

var assistantsCreateFlags struct {
	model           string
	name            string
	description     string
	instructions    string
	codeInterpreter bool
	fileSearch      bool
}

var assistantsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an assistant",
	Args:  cobra.NoArgs,
	RunE:  runAssistantsCreate,
}

var assistantsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show an assistant as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runAssistantsShow,
}

var assistantsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an assistant",
	Args:  cobra.ExactArgs(1),
	RunE:  runAssistantsDelete,
}

func init() {
	rootCmd.AddCommand(assistantsCmd)
	assistantsCmd.AddCommand(assistantsListCmd, assistantsCreateCmd, assistantsShowCmd, assistantsDeleteCmd)

	assistantsListCmd.Flags().IntVar(&assistantsListFlags.limit, "limit", 20, "maximum assistants to list")
	assistantsListCmd.Flags().StringVar(&assistantsListFlags.order, "order", "desc", "sort order by creation: asc, desc")

	assistantsCreateCmd.Flags().StringVarP(&assistantsCreateFlags.model, "model", "m", "", "model name (uses config if not specified)")
	assistantsCreateCmd.Flags().StringVar(&assistantsCreateFlags.name, "name", "", "assistant name")
	assistantsCreateCmd.Flags().StringVar(&assistantsCreateFlags.description, "description", "", "assistant description")
	assistantsCreateCmd.Flags().StringVar(&assistantsCreateFlags.instructions, "instructions", "", "system instructions")
	assistantsCreateCmd.Flags().BoolVar(&assistantsCreateFlags.codeInterpreter, "code-interpreter", false, "enable the code interpreter tool")
	assistantsCreateCmd.Flags().BoolVar(&assistantsCreateFlags.fileSearch, "file-search", false, "enable the file search tool")
}

func newAssistantClient(cmd *cobra.Command) (*env, *openai.AssistantClient, error) {
	e, err := setup(cmd)
	if err != nil {
		return nil, nil, err
	}
	c, err := openai.NewAssistantClient(e.cfg.ClientConfig(openai.ProviderName), e.openaiOptions()...)
	if err != nil {
		e.close()
		return nil, nil, err
	}
	return e, c, nil
}

func runAssistantsList(cmd *cobra.Command, _ []string) error {
	e, c, err := newAssistantClient(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	list, err := c.List(e.ctx, openai.ListAssistantsParams{
		Limit: assistantsListFlags.limit,
		Order: assistantsListFlags.order,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMODEL\tCREATED")
	for _, a := range list.Assistants {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.Name, a.Model, a.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runAssistantsCreate(cmd *cobra.Command, _ []string) error {
	e, c, err := newAssistantClient(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	a, err := c.Create(e.ctx, openai.AssistantRequest{
		Model:           assistantsCreateFlags.model,
		Name:            assistantsCreateFlags.name,
		Description:     assistantsCreateFlags.description,
		Instructions:    assistantsCreateFlags.instructions,
		CodeInterpreter: assistantsCreateFlags.codeInterpreter,
		FileSearch:      assistantsCreateFlags.fileSearch,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), a.ID)
	return nil
}

func runAssistantsShow(cmd *cobra.Command, args []string) error {
	e, c, err := newAssistantClient(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	a, err := c.Retrieve(e.ctx, args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}

func runAssistantsDelete(cmd *cobra.Command, args []string) error {
	e, c, err := newAssistantClient(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	deleted, err := c.Delete(e.ctx, args[0])
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("assistant %s was not deleted", args[0])
	}
	fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
	return nil
}
