package types

type CommonListCond struct {
	Page     int64 `json:"page" form:"page"`
	PageSize int8  `json:"page_size" form:"page_size" binding:"required,min=1,max=100"`
}

type CommonListRsp struct {
	Count    int64  `json:"count"`
	Page     uint64 `json:"page"`
	PageSize uint8  `json:"page_size"`
}
