package aws

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

type Client struct {
	EC2    *ec2.Client
	SSM    *ssm.Client
	Region string
}

func NewClient(ctx context.Context, region string) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return &Client{
		EC2:    ec2.NewFromConfig(cfg),
		SSM:    ssm.NewFromConfig(cfg),
		Region: region,
	}, nil
}

// ResolveInstance accepts an instance ID or a Name tag and returns the ID of
// the matching running instance.
func (c *Client) ResolveInstance(ctx context.Context, idOrName string) (string, error) {
	if strings.HasPrefix(idOrName, "i-") {
		return idOrName, nil
	}

	result, err := c.EC2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		Filters: []types.Filter{
			{
				Name:   aws.String("instance-state-name"),
				Values: []string{"running"},
			},
			{
				Name:   aws.String("tag:Name"),
				Values: []string{idOrName},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to describe instances: %w", err)
	}

	var ids []string
	for _, reservation := range result.Reservations {
		for _, instance := range reservation.Instances {
			if id := aws.ToString(instance.InstanceId); id != "" {
				ids = append(ids, id)
			}
		}
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("no running instance tagged Name=%s in %s", idOrName, c.Region)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%d running instances tagged Name=%s, use an instance id", len(ids), idOrName)
	}
}
