package server

// Request/response value objects. All live for a single request.

type parseRequest struct {
	URL string `json:"url"`
}

type parseResponse struct {
	ParsedContent string `json:"parsed_content"`
}

type synthesizeRequest struct {
	Purpose       string  `json:"purpose"`
	ParsedContext string  `json:"parsed_context"`
	UserCode      *string `json:"user_code"`
}

type synthesizeResponse struct {
	SynthesizedPrompt string `json:"synthesized_prompt"`
}

type pingResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}
