package dto

type CreateCategoryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type SeedResult struct {
	Added int `json:"added"`
}
