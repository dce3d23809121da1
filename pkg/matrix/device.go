package matrix

type AdmittanceStamper interface {
	AddElement(i, j int, value complex128) // 0-based bus indexing
}
