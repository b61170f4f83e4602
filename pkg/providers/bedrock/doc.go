// Package bedrock implements the llm.Client interface for AWS Bedrock
// using the InvokeModel runtime API. Claude models use the Anthropic
// messages body dialect and Titan models use a flattened text prompt.
// Credentials and region come from the standard AWS configuration chain.
package bedrock
