package cluster

// assumeRolePolicyDocument lets Redshift assume the S3 read role on the
// warehouse's behalf during COPY.
const assumeRolePolicyDocument = `{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Action": "sts:AssumeRole",
      "Effect": "Allow",
      "Principal": {"Service": "redshift.amazonaws.com"}
    }
  ]
}`

// s3ReadOnlyPolicyARN is the managed policy attached to the role so the
// cluster can read the source buckets.
const s3ReadOnlyPolicyARN = "arn:aws:iam::aws:policy/AmazonS3ReadOnlyAccess"
