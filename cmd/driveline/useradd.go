package main

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/driveline/driveline/internal/models"
)

var useraddCmd = &cobra.Command{
	Use:   "useradd <username>",
	Short: "Register an account",
	Long:  `Useradd registers an account, prompting for the password when not provided.`,
	Example: `  driveline useradd alice
  driveline useradd viewer --role guest`,
	Args: cobra.ExactArgs(1),
	RunE: runUseradd,
}

var (
	useraddPassword string
	useraddRole     string
)

func init() {
	rootCmd.AddCommand(useraddCmd)

	useraddCmd.Flags().StringVarP(&useraddPassword, "password", "p", "",
		"Password (will prompt if not provided)")
	useraddCmd.Flags().StringVar(&useraddRole, "role", "admin",
		"Account role (admin or guest)")
}

func runUseradd(cmd *cobra.Command, args []string) error {
	username := args[0]

	role := models.Role(useraddRole)
	if role != models.RoleAdmin && role != models.RoleGuest {
		return fmt.Errorf("unknown role %q", useraddRole)
	}

	if useraddPassword == "" {
		var err error
		useraddPassword, err = promptPassword(fmt.Sprintf("Password for %s: ", username))
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
	}

	user, err := apiClient.Auth.Register(context.Background(), username, useraddPassword, role)
	if err != nil {
		return err
	}

	fmt.Printf("User %s registered (id %d, role %s)\n", user.Username, user.ID, user.Role)
	return nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(password), nil
}
