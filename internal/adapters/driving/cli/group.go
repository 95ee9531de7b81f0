package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driving"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage document groups",
	Long: `Groups label documents for scoped search and draining. A document can
belong to several groups. The "default" group always exists and receives
documents that belong nowhere else.`,
}

var groupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List groups",
	Args:  cobra.NoArgs,
	RunE:  runGroupList,
}

var groupCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a group",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupCreate,
}

var groupUpdateCmd = &cobra.Command{
	Use:   "update [name]",
	Short: "Rename or edit a group",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupUpdate,
}

var groupDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a group",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupDelete,
}

var (
	groupDescription string
	groupColor       string
	groupRename      string
)

func init() {
	for _, c := range []*cobra.Command{groupCreateCmd, groupUpdateCmd} {
		c.Flags().StringVarP(&groupDescription, "description", "d", "", "group description")
		c.Flags().StringVar(&groupColor, "color", "", "display colour as #rrggbb")
	}
	groupUpdateCmd.Flags().StringVar(&groupRename, "name", "", "new group name")

	groupCmd.AddCommand(groupListCmd)
	groupCmd.AddCommand(groupCreateCmd)
	groupCmd.AddCommand(groupUpdateCmd)
	groupCmd.AddCommand(groupDeleteCmd)
	rootCmd.AddCommand(groupCmd)
}

func runGroupList(cmd *cobra.Command, _ []string) error {
	if groupService == nil {
		return errors.New("group service not configured")
	}

	groups, err := groupService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list groups: %w", err)
	}

	for i := range groups {
		g := &groups[i]
		cmd.Printf("%-20s %s %4d docs  %s\n", g.Name, g.Color, g.DocumentCount, g.Description)
	}
	return nil
}

func runGroupCreate(cmd *cobra.Command, args []string) error {
	if groupService == nil {
		return errors.New("group service not configured")
	}

	g, err := groupService.Create(cmd.Context(), driving.GroupInput{
		Name:        args[0],
		Description: groupDescription,
		Color:       groupColor,
	})
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	cmd.Printf("Created group %s (%s)\n", g.Name, g.Color)
	return nil
}

func runGroupUpdate(cmd *cobra.Command, args []string) error {
	if groupService == nil {
		return errors.New("group service not configured")
	}

	ctx := cmd.Context()
	current, err := groupService.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get group: %w", err)
	}

	in := driving.GroupInput{
		Name:        groupRename,
		Description: current.Description,
		Color:       groupColor,
	}
	if cmd.Flags().Changed("description") {
		in.Description = groupDescription
	}

	g, err := groupService.Update(ctx, current.Name, in)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	cmd.Printf("Updated group %s\n", g.Name)
	return nil
}

func runGroupDelete(cmd *cobra.Command, args []string) error {
	if groupService == nil {
		return errors.New("group service not configured")
	}

	if err := groupService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	cmd.Printf("Deleted group %s\n", args[0])
	return nil
}
