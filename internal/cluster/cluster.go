// Package cluster provisions and tears down the Redshift cluster the
// pipeline loads into. It is an infrastructure collaborator: the ELT core
// only ever sees the resulting endpoint through the connection string and
// never imports this package.
package cluster

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/iam"
	"github.com/aws/aws-sdk-go/service/redshift"

	"github.com/sparkify/sparkify-dwh/internal/config"
	"github.com/sparkify/sparkify-dwh/internal/logging"
)

// Manager wraps the AWS clients needed to provision the warehouse.
// Credentials come from the SDK's default chain; this tool never parses
// credential material itself.
type Manager struct {
	cfg      config.ClusterConfig
	iam      *iam.IAM
	redshift *redshift.Redshift
	ec2      *ec2.EC2
}

// Info is a snapshot of the live cluster state.
type Info struct {
	Identifier string
	Status     string
	Endpoint   string
	Port       int64
	Database   string
	NumNodes   int64
	VpcID      string
}

// NewManager creates a Manager for the given region and cluster settings.
func NewManager(region string, cfg config.ClusterConfig) (*Manager, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return &Manager{
		cfg:      cfg,
		iam:      iam.New(sess),
		redshift: redshift.New(sess),
		ec2:      ec2.New(sess),
	}, nil
}

// Provision creates the S3 read role, the cluster itself, and the ingress
// rule exposing the warehouse port. Resources that already exist are
// logged and kept, so re-running Provision converges instead of failing.
// It returns the ARN of the role the COPY statements should reference.
func (m *Manager) Provision() (string, error) {
	roleARN, err := m.ensureRole()
	if err != nil {
		return "", err
	}
	if err := m.ensureCluster(roleARN); err != nil {
		return "", err
	}
	logging.Info().
		Str("cluster", m.cfg.Identifier).
		Str("role_arn", roleARN).
		Msg("Cluster provisioning started; it becomes available once status is 'available'")
	return roleARN, nil
}

// AuthorizeIngress opens the warehouse port to the world on the cluster's
// security group. The cluster must exist before this is called; its VPC
// security group is only known once the cluster does.
func (m *Manager) AuthorizeIngress() error {
	groupID, err := m.securityGroupID()
	if err != nil {
		return err
	}
	_, err = m.ec2.AuthorizeSecurityGroupIngress(&ec2.AuthorizeSecurityGroupIngressInput{
		GroupId:    aws.String(groupID),
		IpProtocol: aws.String("tcp"),
		CidrIp:     aws.String("0.0.0.0/0"),
		FromPort:   aws.Int64(int64(m.cfg.Port)),
		ToPort:     aws.Int64(int64(m.cfg.Port)),
	})
	if isAWSError(err, "InvalidPermission.Duplicate") {
		logging.Warn().Str("group", groupID).Msg("Ingress rule already present")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to authorize ingress: %w", err)
	}
	logging.Info().Str("group", groupID).Int("port", m.cfg.Port).Msg("Authorized ingress")
	return nil
}

// Describe returns the live state of the cluster.
func (m *Manager) Describe() (*Info, error) {
	c, err := m.describeCluster()
	if err != nil {
		return nil, err
	}
	info := &Info{
		Identifier: aws.StringValue(c.ClusterIdentifier),
		Status:     aws.StringValue(c.ClusterStatus),
		Database:   aws.StringValue(c.DBName),
		NumNodes:   aws.Int64Value(c.NumberOfNodes),
		VpcID:      aws.StringValue(c.VpcId),
	}
	if c.Endpoint != nil {
		info.Endpoint = aws.StringValue(c.Endpoint.Address)
		info.Port = aws.Int64Value(c.Endpoint.Port)
	}
	return info, nil
}

// Teardown deletes the cluster, the ingress rule, and the role created by
// Provision. Deletion is asynchronous on the AWS side; verify in the
// console before assuming everything is gone.
func (m *Manager) Teardown() error {
	if err := m.revokeIngress(); err != nil {
		logging.Warn().Err(err).Msg("Could not revoke ingress rule")
	}

	_, err := m.redshift.DeleteCluster(&redshift.DeleteClusterInput{
		ClusterIdentifier:        aws.String(m.cfg.Identifier),
		SkipFinalClusterSnapshot: aws.Bool(true),
	})
	if err != nil && !isAWSError(err, redshift.ErrCodeClusterNotFoundFault) {
		return fmt.Errorf("failed to delete cluster: %w", err)
	}

	_, err = m.iam.DetachRolePolicy(&iam.DetachRolePolicyInput{
		RoleName:  aws.String(m.cfg.IAMRoleName),
		PolicyArn: aws.String(s3ReadOnlyPolicyARN),
	})
	if err != nil && !isAWSError(err, iam.ErrCodeNoSuchEntityException) {
		return fmt.Errorf("failed to detach role policy: %w", err)
	}

	_, err = m.iam.DeleteRole(&iam.DeleteRoleInput{
		RoleName: aws.String(m.cfg.IAMRoleName),
	})
	if err != nil && !isAWSError(err, iam.ErrCodeNoSuchEntityException) {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	logging.Info().Str("cluster", m.cfg.Identifier).Msg("Teardown requested")
	return nil
}

func (m *Manager) ensureRole() (string, error) {
	_, err := m.iam.CreateRole(&iam.CreateRoleInput{
		Path:                     aws.String("/"),
		RoleName:                 aws.String(m.cfg.IAMRoleName),
		Description:              aws.String("Allows Redshift clusters to read the Sparkify source buckets."),
		AssumeRolePolicyDocument: aws.String(assumeRolePolicyDocument),
	})
	if err != nil && !isAWSError(err, iam.ErrCodeEntityAlreadyExistsException) {
		return "", fmt.Errorf("failed to create role %s: %w", m.cfg.IAMRoleName, err)
	}

	_, err = m.iam.AttachRolePolicy(&iam.AttachRolePolicyInput{
		RoleName:  aws.String(m.cfg.IAMRoleName),
		PolicyArn: aws.String(s3ReadOnlyPolicyARN),
	})
	if err != nil {
		return "", fmt.Errorf("failed to attach role policy: %w", err)
	}

	out, err := m.iam.GetRole(&iam.GetRoleInput{RoleName: aws.String(m.cfg.IAMRoleName)})
	if err != nil {
		return "", fmt.Errorf("failed to look up role ARN: %w", err)
	}
	return aws.StringValue(out.Role.Arn), nil
}

func (m *Manager) ensureCluster(roleARN string) error {
	input := &redshift.CreateClusterInput{
		ClusterType:        aws.String(m.cfg.ClusterType),
		NodeType:           aws.String(m.cfg.NodeType),
		DBName:             aws.String(m.cfg.Database),
		ClusterIdentifier:  aws.String(m.cfg.Identifier),
		MasterUsername:     aws.String(m.cfg.MasterUsername),
		MasterUserPassword: aws.String(m.cfg.MasterPassword),
		Port:               aws.Int64(int64(m.cfg.Port)),
		IamRoles:           []*string{aws.String(roleARN)},
	}
	if m.cfg.ClusterType == "multi-node" {
		input.NumberOfNodes = aws.Int64(int64(m.cfg.NumNodes))
	}

	_, err := m.redshift.CreateCluster(input)
	if isAWSError(err, redshift.ErrCodeClusterAlreadyExistsFault) {
		logging.Warn().Str("cluster", m.cfg.Identifier).Msg("Cluster already exists")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create cluster %s: %w", m.cfg.Identifier, err)
	}
	return nil
}

func (m *Manager) describeCluster() (*redshift.Cluster, error) {
	out, err := m.redshift.DescribeClusters(&redshift.DescribeClustersInput{
		ClusterIdentifier: aws.String(m.cfg.Identifier),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe cluster %s: %w", m.cfg.Identifier, err)
	}
	if len(out.Clusters) == 0 {
		return nil, fmt.Errorf("cluster %s not found", m.cfg.Identifier)
	}
	return out.Clusters[0], nil
}

func (m *Manager) securityGroupID() (string, error) {
	c, err := m.describeCluster()
	if err != nil {
		return "", err
	}
	if len(c.VpcSecurityGroups) == 0 {
		return "", fmt.Errorf("cluster %s has no VPC security group", m.cfg.Identifier)
	}
	return aws.StringValue(c.VpcSecurityGroups[0].VpcSecurityGroupId), nil
}

func (m *Manager) revokeIngress() error {
	groupID, err := m.securityGroupID()
	if err != nil {
		return err
	}
	_, err = m.ec2.RevokeSecurityGroupIngress(&ec2.RevokeSecurityGroupIngressInput{
		GroupId:    aws.String(groupID),
		IpProtocol: aws.String("tcp"),
		CidrIp:     aws.String("0.0.0.0/0"),
		FromPort:   aws.Int64(int64(m.cfg.Port)),
		ToPort:     aws.Int64(int64(m.cfg.Port)),
	})
	if isAWSError(err, "InvalidPermission.NotFound") {
		return nil
	}
	return err
}

func isAWSError(err error, code string) bool {
	if err == nil {
		return false
	}
	aerr, ok := err.(awserr.Error)
	return ok && aerr.Code() == code
}
