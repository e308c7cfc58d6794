package github

import "strings"

const headQuery = `query($owner: String!, $name: String!, $qualifiedName: String!) {
  repository(owner: $owner, name: $name) {
    ref(qualifiedName: $qualifiedName) {
      target {
        ... on Commit {
          history(first: 1) {
            nodes {
              oid
            }
          }
        }
      }
    }
  }
}`

const createCommitMutation = `mutation($input: CreateCommitOnBranchInput!) {
  createCommitOnBranch(input: $input) {
    commit {
      oid
      url
    }
  }
}`

// staleDataType is the GraphQL error type GitHub
// reports when expectedHeadOid no longer matches.
const staleDataType = "STALE_DATA"

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type graphQLErrors []graphQLError

func (e graphQLErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, ge := range e {
		msgs = append(msgs, ge.Message)
	}

	return strings.Join(msgs, "; ")
}

// stale reports whether any error says the branch
// moved.
func (e graphQLErrors) stale() bool {
	for _, ge := range e {
		if ge.Type == staleDataType ||
			strings.Contains(
				ge.Message, "Expected branch to point to",
			) {
			return true
		}
	}

	return false
}

func (e graphQLErrors) notFound() bool {
	for _, ge := range e {
		if ge.Type == "NOT_FOUND" {
			return true
		}
	}

	return false
}

type headResponse struct {
	Data struct {
		Repository *struct {
			Ref *struct {
				Target struct {
					History struct {
						Nodes []struct {
							OID string `json:"oid"`
						} `json:"nodes"`
					} `json:"history"`
				} `json:"target"`
			} `json:"ref"`
		} `json:"repository"`
	} `json:"data"`
	Errors graphQLErrors `json:"errors"`
}

type createCommitResponse struct {
	Data struct {
		CreateCommitOnBranch *struct {
			Commit struct {
				OID string `json:"oid"`
				URL string `json:"url"`
			} `json:"commit"`
		} `json:"createCommitOnBranch"`
	} `json:"data"`
	Errors graphQLErrors `json:"errors"`
}

// commitInput mirrors CreateCommitOnBranchInput.
type commitInput struct {
	Branch          branchInput  `json:"branch"`
	Message         messageInput `json:"message"`
	FileChanges     fileChanges  `json:"fileChanges"`
	ExpectedHeadOID string       `json:"expectedHeadOid"`
}

type branchInput struct {
	RepositoryNameWithOwner string `json:"repositoryNameWithOwner"`
	BranchName              string `json:"branchName"`
}

type messageInput struct {
	Headline string `json:"headline"`
	Body     string `json:"body,omitempty"`
}

type fileAddition struct {
	Path     string `json:"path"`
	Contents string `json:"contents"`
}

type fileDeletion struct {
	Path string `json:"path"`
}

type fileChanges struct {
	Additions []fileAddition `json:"additions"`
	Deletions []fileDeletion `json:"deletions"`
}
