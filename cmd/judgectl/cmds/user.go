package cmds

import (
	"errors"

	"github.com/alexedwards/argon2id"
	"github.com/spf13/cobra"
	"gorm.io/datatypes"

	"github.com/openoj/judge-api/internal/models"
	"github.com/openoj/judge-api/internal/logger"
)

var (
	userCreateUsername string
	userCreateToken    string
	userCreateAdmin    bool
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an active user with an API token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if userCreateUsername == "" || userCreateToken == "" {
			return errors.New("--username and --token are required")
		}

		db, _, err := openDB()
		if err != nil {
			return err
		}

		hash, err := argon2id.CreateHash(userCreateToken, argon2id.DefaultParams)
		if err != nil {
			return err
		}

		user := models.User{
			Username: userCreateUsername,
			Token:    hash,
			Active:   datatypes.NewNull(true),
			Admin:    userCreateAdmin,
		}

		if err := db.WithContext(cmd.Context()).Create(&user).Error; err != nil {
			return err
		}

		logger.Logger.Info("created user", "id", user.ID.String(), "username", user.Username)
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&userCreateUsername, "username", "", "username for the new user")
	userCreateCmd.Flags().StringVar(&userCreateToken, "token", "", "API token for the new user")
	userCreateCmd.Flags().BoolVar(&userCreateAdmin, "admin", false, "grant admin rights")

	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(userCmd)
}
