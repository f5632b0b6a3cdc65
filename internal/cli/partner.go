package cli

import (
	"fmt"

	"cravecart/internal/database"
	"cravecart/internal/domain"
	"cravecart/internal/identity"
	"cravecart/internal/logging"
	"cravecart/internal/repo"
	"cravecart/internal/service"

	"github.com/spf13/cobra"
)

var partnerCmd = &cobra.Command{
	Use:   "partner",
	Short: "Manage restaurant and driver accounts",
}

var partnerCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a restaurant or driver account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")
		role, _ := cmd.Flags().GetString("role")
		name, _ := cmd.Flags().GetString("name")

		db, err := database.NewPostgres(cmd.Context(), cfg.DB)
		if err != nil {
			return err
		}
		defer db.Close()

		partners := service.NewPartnerService(
			repo.NewPartnerRepo(db),
			identity.NewJWTProvider(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
			service.AdminCredentials{},
			logging.For(log, "partner-cli"),
		)
		partner, err := partners.CreatePartner(cmd.Context(), domain.Admin{Name: "cli"}, service.CreatePartnerRequest{
			Username: username,
			Password: password,
			Role:     domain.Role(role),
			Name:     name,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s %q (%s)\n", partner.Role, partner.Username, partner.ID)
		return nil
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash, e.g. for auth.admin_password_hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := identity.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	partnerCreateCmd.Flags().String("username", "", "login name")
	partnerCreateCmd.Flags().String("password", "", "initial password")
	partnerCreateCmd.Flags().String("role", string(domain.RoleRestaurant), "restaurant or driver")
	partnerCreateCmd.Flags().String("name", "", "display name")
	_ = partnerCreateCmd.MarkFlagRequired("username")
	_ = partnerCreateCmd.MarkFlagRequired("password")

	partnerCmd.AddCommand(partnerCreateCmd, hashPasswordCmd)
}
