package cli

import (
	"github.com/spf13/cobra"

	"github.com/sparkify/sparkify-dwh/internal/cluster"
	"github.com/sparkify/sparkify-dwh/internal/logging"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Provision and manage the Redshift cluster",
	Long: `Manage the warehouse cluster itself: create the S3 read role and the
cluster, inspect its state, or tear everything down. These commands talk
to AWS only; they never touch the data inside the warehouse.

Credentials come from the AWS SDK's default chain (environment, shared
config, instance profile).`,
}

var clusterCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the IAM role, cluster, and ingress rule",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newClusterManager()
		if err != nil {
			return err
		}
		roleARN, err := m.Provision()
		if err != nil {
			return err
		}
		cmd.Printf("IAM role ARN: %s\n", roleARN)
		cmd.Println("Set iam_role_arn in the config to this value once the cluster is available,")
		cmd.Println("then run 'sparkify-dwh cluster create' again to authorize ingress, or use 'cluster info'")
		cmd.Println("to watch the status.")

		// The security group is only known once the cluster exists;
		// on a fresh create this fails until AWS catches up.
		if err := m.AuthorizeIngress(); err != nil {
			logging.Warn().Err(err).
				Msg("Could not authorize ingress yet; re-run once the cluster exists")
		}
		return nil
	},
}

var clusterInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the live cluster state",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newClusterManager()
		if err != nil {
			return err
		}
		info, err := m.Describe()
		if err != nil {
			return err
		}
		cmd.Printf("Identifier: %s\n", info.Identifier)
		cmd.Printf("Status    : %s\n", info.Status)
		cmd.Printf("Endpoint  : %s:%d\n", info.Endpoint, info.Port)
		cmd.Printf("Database  : %s\n", info.Database)
		cmd.Printf("Nodes     : %d\n", info.NumNodes)
		cmd.Printf("VPC       : %s\n", info.VpcID)
		return nil
	},
}

var clusterDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the cluster, ingress rule, and IAM role",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newClusterManager()
		if err != nil {
			return err
		}
		return m.Teardown()
	},
}

func init() {
	clusterCmd.AddCommand(clusterCreateCmd)
	clusterCmd.AddCommand(clusterInfoCmd)
	clusterCmd.AddCommand(clusterDeleteCmd)
}

func newClusterManager() (*cluster.Manager, error) {
	if err := cfg.ValidateCluster(); err != nil {
		return nil, err
	}
	return cluster.NewManager(cfg.Region, cfg.Cluster)
}
