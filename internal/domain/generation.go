package domain

// GenerationRequest is a metadata generation job tracked by the generation service
type GenerationRequest struct {
	RequestID     string `json:"request_id"`
	RequestStatus string `json:"request_status"`
	RequestDate   string `json:"request_date"`
	NumProducts   int    `json:"num_products"`
	DownloadLink  string `json:"download_link"`
}

// GenerationImage is one product image in an upload batch
type GenerationImage struct {
	ImageID         string `json:"image_id"`
	ImageName       string `json:"image_name"`
	ImageData       string `json:"image_data"`
	ProductSource   string `json:"product_source"`
	SourceProductID string `json:"source_product_id"`
}

// ProductSourceShopify tags images that came from the platform catalog
const ProductSourceShopify = "shopify"

// GenerationUploadResult is the service's reply to an upload batch
type GenerationUploadResult struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id,omitempty"`
	Message   string `json:"message,omitempty"`
	Uploaded  int    `json:"uploaded"`
}
