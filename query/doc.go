// Package query resolves natural language property questions against the
// vector index. A resolver embeds the query, retrieves the most similar
// properties, builds a prompt grounded in those listings and asks the
// language model for an answer. Generation faults never reach the caller;
// they degrade to an apology answer instead.
package query
