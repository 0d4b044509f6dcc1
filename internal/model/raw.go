package model

// RawTrial 所有注册库客户端产出的原始记录通用包装
type RawTrial struct {
	Source SourceType  // 来源注册库
	ID     string      // 注册库原生登记号（可为空，归一化时兜底）
	Data   interface{} // 注册库原生数据（CTGovStudy/EUCTRTrial）
}
